package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/content"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// document is a validated note ready for upload.
type document struct {
	fields  frontmatter.Fields
	header  []byte
	body    string
	had     bool
	style   frontmatter.Style
	title   string
	content content.Result
}

// Publish creates a new post from file. When immediate is false the pull
// request is labelled for a later merge instead of being merged.
func (o *Orchestrator) Publish(ctx context.Context, file string, site config.SiteConfig, immediate bool) *PublishResult {
	return o.runPublish(ctx, OpPublish, file, site, immediate)
}

// Update overwrites an already published post. The existing remote file
// keeps its name; only its content changes.
func (o *Orchestrator) Update(ctx context.Context, file string, site config.SiteConfig, immediate bool) *PublishResult {
	return o.runPublish(ctx, OpUpdate, file, site, immediate)
}

func (o *Orchestrator) runPublish(ctx context.Context, op Operation, file string, site config.SiteConfig, immediate bool) (res *PublishResult) {
	start := o.now()
	res = &PublishResult{Op: op}
	defer func() {
		o.finish(op, start, res.Failure, logfields.Site(site.Name), logfields.Path(file), logfields.PR(res.PRNumber))
	}()
	defer guard(func(f *Failure) { res.Failure = f })

	var doc *document
	s, failure := o.open(op, file, site, func() *Failure {
		var f *Failure
		doc, f = o.load(file)
		return f
	})
	if failure != nil {
		res.Failure = failure
		return res
	}
	res.Slug = s.slug
	doc.content = content.Transform(doc.body, content.OptionsForSite(site, s.slug+"-"))

	p, failure := o.place(ctx, s, op, doc)
	if failure != nil {
		res.Failure = failure
		return res
	}
	if err := o.upload(ctx, s, p, doc, immediate, res); err != nil {
		res.Failure = remoteFailure(err)
	}
	return res
}

// load reads and validates file.
func (o *Orchestrator) load(file string) (*document, *Failure) {
	text, err := o.docs.ReadText(file)
	if err != nil {
		return nil, readFailure(err)
	}
	raw := []byte(text)
	vr := frontmatter.Validate(raw, o.rules)
	if !vr.Valid {
		return nil, &Failure{
			Kind:       FailureValidationFailed,
			Message:    "frontmatter is invalid: " + vr.Summary(),
			Validation: &vr,
		}
	}
	header, body, had, style, err := frontmatter.Split(raw)
	if err != nil {
		// Validate already rejects an unclosed header.
		return nil, &Failure{Kind: FailureValidationFailed, Message: err.Error(), Validation: &vr}
	}
	return &document{
		fields: vr.Frontmatter,
		header: header,
		body:   string(body),
		had:    had,
		style:  style,
		title:  documentTitle(vr.Frontmatter, file),
	}, nil
}

// placement is where a document goes on the remote.
type placement struct {
	branch      string
	verb        string
	postPath    string
	existingSHA string
	date        time.Time
}

// place resolves the target path and date. Update looks the post up on the
// base branch; a missing post is a NotFound failure rather than a remote error.
func (o *Orchestrator) place(ctx context.Context, s *session, op Operation, doc *document) (placement, *Failure) {
	fmDate, hasFMDate := frontmatterDate(doc.fields)
	if op != OpUpdate {
		p := placement{branch: workBranch(publishBranchPrefix, s.slug), verb: "Publish", date: o.now()}
		if hasFMDate {
			p.date = fmDate
		}
		p.postPath = repoPath(s.site.PostsPath, TargetFilename(s.site, s.slug, filepath.Ext(s.file), p.date))
		return p, nil
	}

	p := placement{branch: workBranch(updateBranchPrefix, s.slug), verb: "Update"}
	listing, err := s.remote.ListFiles(ctx, s.site.PostsPath, s.site.Branch)
	if err != nil {
		return p, remoteFailure(err)
	}
	matches := FindPosts(listing, s.slug)
	if len(matches) == 0 {
		return p, &Failure{
			Kind:    FailureNotFound,
			Message: fmt.Sprintf("no published post for %q in %s", s.slug, s.site.PostsPath),
		}
	}
	existing := matches[0]
	p.postPath, p.existingSHA = existing.Path, existing.SHA
	if p.postPath == "" {
		p.postPath = repoPath(s.site.PostsPath, existing.Name)
	}
	switch d, ok := dateFromFilename(existing.Name); {
	case hasFMDate:
		p.date = fmDate
	case ok:
		p.date = d
	default:
		p.date = o.now()
	}
	return p, nil
}

// upload runs the remote half of publish and update. res is filled as steps
// complete so a failure still reports what was done.
func (o *Orchestrator) upload(ctx context.Context, s *session, p placement, doc *document, immediate bool, res *PublishResult) error {
	branch := p.branch
	res.Branch = branch
	res.Path = p.postPath

	s.log.Debug("Preparing work branch", logfields.Branch(branch))
	if _, err := s.remote.EnsureFreshBranch(ctx, branch, s.site.Branch); err != nil {
		return err
	}

	published := frontmatter.Join(doc.header, []byte(doc.content.Content), doc.had, doc.style)
	message := fmt.Sprintf("%s: %s", p.verb, doc.title)
	s.log.Debug("Uploading post", logfields.Path(p.postPath))
	if _, err := s.remote.PutFile(ctx, p.postPath, published, message, branch, p.existingSHA); err != nil {
		return err
	}

	for _, asset := range doc.content.Assets {
		if o.uploadAsset(ctx, s, asset, branch, doc.title) {
			res.Assets = append(res.Assets, asset)
			continue
		}
		res.SkippedAssets = append(res.SkippedAssets, asset.Filename)
		o.recorder.IncAssetSkipped()
	}

	body := pullRequestBody(p.verb, p.postPath, res.Assets, res.SkippedAssets, content.ExtractLinks([]byte(doc.content.Content)))
	pr, err := s.remote.OpenPullRequest(ctx, message, branch, s.site.Branch, body)
	if err != nil {
		return err
	}
	res.PRNumber, res.PRURL = pr.Number, pr.URL
	s.log.Debug("Opened pull request", logfields.PR(pr.Number))

	if immediate {
		if err := s.remote.MergePullRequest(ctx, pr.Number, message); err != nil {
			return err
		}
		res.Merged = true
		s.bestEffortDeleteBranch(ctx, branch)
	} else if s.site.ScheduledLabel != "" {
		if err := s.remote.AddLabels(ctx, pr.Number, []string{s.site.ScheduledLabel}); err != nil {
			return err
		}
	}

	res.LiveURL = LiveURL(s.site, doc.fields, s.slug, p.date)
	res.Fingerprint = Fingerprint(doc.header, doc.content.Content)
	return nil
}

// uploadAsset uploads one attachment and reports whether it succeeded.
// Missing or failing attachments never fail the workflow.
func (o *Orchestrator) uploadAsset(ctx context.Context, s *session, asset content.AssetReference, branch, title string) bool {
	log := s.log.With(slog.String("asset", asset.Filename), logfields.Path(asset.TargetPath))
	local, ok := o.docs.FindByName(asset.Filename)
	if !ok {
		log.Warn("Attachment not found, skipping")
		return false
	}
	data, err := o.docs.ReadBinary(local)
	if err != nil {
		log.Warn("Attachment unreadable, skipping", logfields.Error(err))
		return false
	}
	existingSHA := ""
	if current := s.remote.GetFile(ctx, asset.TargetPath, branch); current != nil {
		existingSHA = current.SHA
	}
	if _, err := s.remote.PutFile(ctx, asset.TargetPath, data, "Add asset for "+title, branch, existingSHA); err != nil {
		log.Warn("Attachment upload failed, skipping", logfields.Error(err))
		return false
	}
	return true
}
