package publish

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/content"
)

// pullRequestBody documents a publish or update for reviewers.
func pullRequestBody(verb, postPath string, uploaded []content.AssetReference, skipped, links []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s `%s` via notebridge.\n", verb, postPath)
	if len(uploaded) > 0 {
		b.WriteString("\n### Assets\n\n")
		for _, a := range uploaded {
			fmt.Fprintf(&b, "- `%s`\n", a.TargetPath)
		}
	}
	if len(skipped) > 0 {
		b.WriteString("\n### Missing attachments\n\n")
		for _, name := range skipped {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	if len(links) > 0 {
		b.WriteString("\n### Outbound links\n\n")
		for _, l := range links {
			fmt.Fprintf(&b, "- <%s>\n", l)
		}
	}
	return b.String()
}

func unpublishBody(slug string, deleted []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unpublish `%s` via notebridge.\n\n### Removed\n\n", slug)
	for _, p := range deleted {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}
	return b.String()
}
