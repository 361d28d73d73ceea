package publish

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// Unpublish removes the post for file, and its slug-prefixed assets when the
// site enables it, through an immediately merged pull request. Frontmatter is
// not validated.
func (o *Orchestrator) Unpublish(ctx context.Context, file string, site config.SiteConfig) (res *UnpublishResult) {
	start := o.now()
	res = &UnpublishResult{}
	defer func() {
		o.finish(OpUnpublish, start, res.Failure, logfields.Site(site.Name), logfields.Path(file), logfields.PR(res.PRNumber))
	}()
	defer guard(func(f *Failure) { res.Failure = f })

	s, failure := o.open(OpUnpublish, file, site, nil)
	if failure != nil {
		res.Failure = failure
		return res
	}
	res.Slug = s.slug

	listing, err := s.remote.ListFiles(ctx, site.PostsPath, site.Branch)
	if err != nil {
		res.Failure = remoteFailure(err)
		return res
	}
	posts := FindPosts(listing, s.slug)
	if len(posts) == 0 {
		res.Failure = &Failure{
			Kind:    FailureNotFound,
			Message: fmt.Sprintf("no published post for %q in %s", s.slug, displayDir(site.PostsPath)),
		}
		return res
	}

	if err := o.removePosts(ctx, s, posts, res); err != nil {
		res.Failure = remoteFailure(err)
	}
	return res
}

func (o *Orchestrator) removePosts(ctx context.Context, s *session, posts []forge.RepoFile, res *UnpublishResult) error {
	branch := workBranch(unpublishBranchPrefix, s.slug)
	res.Branch = branch
	if _, err := s.remote.EnsureFreshBranch(ctx, branch, s.site.Branch); err != nil {
		return err
	}

	message := "Unpublish: " + s.slug
	for _, post := range posts {
		p := post.Path
		if p == "" {
			p = repoPath(s.site.PostsPath, post.Name)
		}
		s.log.Debug("Deleting post", logfields.Path(p))
		if err := s.remote.DeleteFile(ctx, p, message, branch, post.SHA); err != nil {
			return err
		}
		res.DeletedFiles = append(res.DeletedFiles, p)
	}

	if s.site.UnpublishAssets() {
		if err := o.removeAssets(ctx, s, branch, message, res); err != nil {
			return err
		}
	}

	pr, err := s.remote.OpenPullRequest(ctx, message, branch, s.site.Branch, unpublishBody(s.slug, res.DeletedFiles))
	if err != nil {
		return err
	}
	res.PRNumber, res.PRURL = pr.Number, pr.URL
	if err := s.remote.MergePullRequest(ctx, pr.Number, message); err != nil {
		return err
	}
	s.bestEffortDeleteBranch(ctx, branch)
	return nil
}

// removeAssets deletes <slug>- prefixed files from the assets directory. The
// directory may not exist, so a failed listing is not an error.
func (o *Orchestrator) removeAssets(ctx context.Context, s *session, branch, message string, res *UnpublishResult) error {
	assets, err := s.remote.ListFiles(ctx, s.site.AssetsPath, branch)
	if err != nil {
		s.log.Debug("No assets listed", logfields.Path(s.site.AssetsPath), logfields.Error(err))
		return nil
	}
	prefix := s.slug + "-"
	for _, a := range assets {
		if !strings.HasPrefix(a.Name, prefix) {
			continue
		}
		p := a.Path
		if p == "" {
			p = repoPath(s.site.AssetsPath, a.Name)
		}
		if err := s.remote.DeleteFile(ctx, p, message, branch, a.SHA); err != nil {
			return err
		}
		res.DeletedFiles = append(res.DeletedFiles, p)
	}
	return nil
}

// Withdraw closes the open pull request queued for file without merging it.
// The scheduled publish branch is checked first, then the update branch.
func (o *Orchestrator) Withdraw(ctx context.Context, file string, site config.SiteConfig) (res *WithdrawResult) {
	start := o.now()
	res = &WithdrawResult{}
	defer func() {
		o.finish(OpWithdraw, start, res.Failure, logfields.Site(site.Name), logfields.Path(file), logfields.PR(res.PRNumber))
	}()
	defer guard(func(f *Failure) { res.Failure = f })

	s, failure := o.open(OpWithdraw, file, site, nil)
	if failure != nil {
		res.Failure = failure
		return res
	}
	res.Slug = s.slug

	for _, prefix := range []string{publishBranchPrefix, updateBranchPrefix} {
		branch := workBranch(prefix, s.slug)
		pr := s.remote.FindOpenPullRequest(ctx, branch)
		if pr == nil {
			continue
		}
		res.Branch, res.PRNumber, res.PRURL = branch, pr.Number, pr.URL
		if err := s.remote.ClosePullRequest(ctx, pr.Number); err != nil {
			res.Failure = remoteFailure(err)
			return res
		}
		s.bestEffortDeleteBranch(ctx, branch)
		return res
	}

	res.Failure = &Failure{
		Kind:    FailureNotFound,
		Message: fmt.Sprintf("no open pull request queued for %q", s.slug),
	}
	return res
}

func displayDir(dir string) string {
	if dir == "" {
		return "/"
	}
	return dir
}
