package report

import (
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoTable indicates the markdown contains no table.
var ErrNoTable = errors.New("report: no markdown table found")

// Shape describes the first markdown table found in a document.
type Shape struct {
	Header     []string
	Alignments []string // left, right, center or none per column
	Rows       int      // data rows, excluding header and alignment rows
}

// Columns returns the number of header cells.
func (s Shape) Columns() int {
	return len(s.Header)
}

// Matches reports whether s looks like a results table with the given number
// of data rows.
func (s Shape) Matches(rows int) bool {
	if s.Rows != rows || len(s.Header) != len(Display) {
		return false
	}
	for i, h := range Display {
		if s.Header[i] != h {
			return false
		}
	}
	return true
}

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Inspect parses source as GitHub-flavoured markdown and describes its first
// table.
func Inspect(source []byte) (Shape, error) {
	doc := tableMarkdown.Parser().Parse(text.NewReader(source))

	var (
		shape Shape
		found bool
	)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		table, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}

		found = true
		for _, a := range table.Alignments {
			shape.Alignments = append(shape.Alignments, alignmentName(a))
		}
		for c := table.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *extast.TableHeader:
				for cell := c.FirstChild(); cell != nil; cell = cell.NextSibling() {
					shape.Header = append(shape.Header, strings.TrimSpace(cellText(cell, source)))
				}
			case *extast.TableRow:
				shape.Rows++
			}
		}
		return ast.WalkStop, nil
	})
	if err != nil {
		return Shape{}, err
	}
	if !found {
		return Shape{}, ErrNoTable
	}

	return shape, nil
}

// cellText concatenates the text segments below n.
func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteString(cellText(c, source))
	}
	return b.String()
}

func alignmentName(a extast.Alignment) string {
	switch a {
	case extast.AlignLeft:
		return "left"
	case extast.AlignRight:
		return "right"
	case extast.AlignCenter:
		return "center"
	default:
		return "none"
	}
}
