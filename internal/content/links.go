package content

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ExtractLinks returns the distinct link destinations of a markdown body in
// document order. Images are excluded; links inside code are not links.
func ExtractLinks(body []byte) []string {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	seen := map[string]bool{}
	links := make([]string, 0)
	add := func(dest string) {
		if dest == "" || seen[dest] {
			return
		}
		seen[dest] = true
		links = append(links, dest)
	}

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			add(string(node.URL(body)))
		case *gmast.Link:
			add(string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return links
}
