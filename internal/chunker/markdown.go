package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// section is a contiguous stretch of a markdown document under one heading.
type section struct {
	path  string // heading hierarchy, e.g. "# Install > ## Steps"
	body  string
	start int // byte offset of the heading line in the source
}

// SplitMarkdown word-windows a markdown document section by section.
// The document is split at H1/H2 boundaries; each window carries its
// heading path as a prefix so retrieval keeps the section context. A
// document without headings degrades to plain Split.
func SplitMarkdown(source []byte, size, overlap int) []string {
	sections := splitSections(source)
	if len(sections) == 0 {
		return Split(string(source), size, overlap)
	}
	var chunks []string
	for _, sec := range sections {
		for _, window := range Split(sec.body, size, overlap) {
			if sec.path != "" {
				window = sec.path + "\n\n" + window
			}
			chunks = append(chunks, window)
		}
	}
	return chunks
}

func splitSections(source []byte) []section {
	md := goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	doc := md.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return nil
	}

	var sections []section
	collectSections(doc, source, tree.Items, nil, &sections)
	if len(sections) == 0 {
		return nil
	}

	// Text before the first heading becomes an untitled leading section.
	if cut := lineStart(source, sections[0].start); cut > 0 {
		if lead := strings.TrimSpace(string(source[:cut])); lead != "" {
			sections = append([]section{{body: lead}}, sections...)
		}
	}
	return sections
}

func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

func collectSections(doc ast.Node, source []byte, items toc.Items, ancestors []string, out *[]section) {
	for _, item := range items {
		titles := append(ancestors, string(item.Title))

		heading := headingByID(doc, string(item.ID))
		if heading == nil || heading.Lines().Len() == 0 {
			continue
		}
		start := heading.Lines().At(0)

		// A section runs to the next H1/H2, so parent sections do not
		// swallow their children's text.
		end := nextBoundary(doc, heading, 2)

		body := sliceBetween(source, start, end)
		*out = append(*out, section{path: headingPath(titles), body: body, start: start.Start})

		if len(item.Items) > 0 {
			collectSections(doc, source, item.Items, titles, out)
		}
	}
}

// headingPath renders ["Install", "Steps"] as "# Install > ## Steps".
func headingPath(titles []string) string {
	parts := make([]string, len(titles))
	for i, title := range titles {
		parts[i] = strings.Repeat("#", i+1) + " " + title
	}
	return strings.Join(parts, " > ")
}

func headingByID(root ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			if attr, ok := n.AttributeString("id"); ok && string(attr.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextBoundary finds the first heading after current at the same or a
// higher level; the zero segment means "to end of document".
func nextBoundary(root ast.Node, current ast.Node, level int) text.Segment {
	var boundary text.Segment
	passed := false
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		if !passed {
			if n == current {
				passed = true
			}
			return ast.WalkContinue, nil
		}
		if n.(*ast.Heading).Level <= level && n.Lines().Len() > 0 {
			boundary = n.Lines().At(0)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return boundary
}

func sliceBetween(source []byte, start, end text.Segment) string {
	if end.Start == 0 && end.Stop == 0 {
		return strings.TrimSpace(string(source[start.Start:]))
	}
	// The boundary segment starts at the heading's title text; cut at the
	// start of its line so the marker is not dragged into this section.
	return strings.TrimSpace(string(source[start.Start:lineStart(source, end.Start)]))
}
