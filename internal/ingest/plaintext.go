package ingest

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// PlainText renders markdown as plain prose. Headings, paragraphs and code blocks become
// blocks separated by a blank line; items of one list stay on consecutive lines.
// Emphasis, links and inline code keep only their text. HTML blocks keep their text content,
// inline tags are dropped and character references are decoded.
func PlainText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var (
		blocks []string
		buf    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(html.UnescapeString(buf.String())); s != "" {
			blocks = append(blocks, s)
		}
		buf.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.List:
			if !entering {
				flush()
			}
		case *ast.ListItem:
			if entering && buf.Len() > 0 {
				// Soft breaks leave a trailing space after the previous item.
				prev := strings.TrimRight(buf.String(), " \n")
				buf.Reset()
				buf.WriteString(prev)
				buf.WriteByte('\n')
			}
		case *ast.ThematicBreak:
			if entering {
				flush()
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				flush()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				flush()
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			if entering {
				flush()
				var raw bytes.Buffer
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					raw.Write(seg.Value(source))
				}
				if node.HasClosure() {
					raw.Write(node.ClosureLine.Value(source))
				}
				if s := htmlText(raw.Bytes()); s != "" {
					blocks = append(blocks, s)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				switch {
				case node.HardLineBreak():
					buf.WriteByte('\n')
				case node.SoftLineBreak():
					buf.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return strings.Join(blocks, "\n\n")
}

// htmlText returns the decoded text of an HTML fragment with runs of whitespace collapsed.
// Script and style contents are dropped.
func htmlText(fragment []byte) string {
	z := html.NewTokenizer(bytes.NewReader(fragment))

	var (
		words []string
		skip  int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return ""
			}
			return strings.Join(words, " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				words = append(words, strings.Fields(string(z.Text()))...)
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}
