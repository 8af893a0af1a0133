package outline

import (
	"strings"
)

const (
	DefaultBullet = "・ "

	indentUnit    = "  "
	indentWrapper = `<div class="indent">`
)

type (
	// Renderer turns nodes into indented html. Content is written verbatim
	// unless filters are configured.
	Renderer struct {
		bullet  string
		filters []Filter
	}
	// Filter transforms the content of a line before it is written
	Filter       func(content string) string
	RenderOption func(*Renderer)
)

var defaultRenderer = NewRenderer()

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewRenderer(opts ...RenderOption) *Renderer {
	inst := &Renderer{
		bullet: DefaultBullet,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBullet(v string) RenderOption {
	return func(o *Renderer) {
		o.bullet = v
	}
}

// WithFilters adds content filters, applied in the given order
func WithFilters(v ...Filter) RenderOption {
	return func(o *Renderer) {
		o.filters = append(o.filters, v...)
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Render renders n with the default renderer
func Render(n *Node, indentLevel int) string {
	return defaultRenderer.Render(n, indentLevel)
}

// RenderAll renders nodes with the default renderer
func RenderAll(nodes []*Node, indentLevel int) string {
	return defaultRenderer.RenderAll(nodes, indentLevel)
}

// Render renders n and its children. Each indent level is two spaces, child
// blocks are rendered two levels deeper than their parent.
func (r *Renderer) Render(n *Node, indentLevel int) string {
	var b strings.Builder
	r.write(&b, n, indentLevel)
	return b.String()
}

// RenderAll renders the nodes one after the other at the same level
func (r *Renderer) RenderAll(nodes []*Node, indentLevel int) string {
	var b strings.Builder
	for _, n := range nodes {
		r.write(&b, n, indentLevel)
	}
	return b.String()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (r *Renderer) write(b *strings.Builder, n *Node, level int) {
	indent := strings.Repeat(indentUnit, level)
	switch {
	case n.IsSection:
		r.writeBlock(b, indent, indentWrapper, n.Children, level+2)
	case n.Content == "" && len(n.Children) > 0:
		r.writeBlock(b, indent, "<div"+classAttr(n.Class)+">", n.Children, level+2)
	case n.Content == "":
		// nothing to show
	default:
		content := n.Content
		for _, filter := range r.filters {
			content = filter(content)
		}
		b.WriteString(indent)
		b.WriteString("<div" + classAttr(n.Class) + ">")
		if n.IsItem {
			b.WriteString(r.bullet)
		}
		b.WriteString(content)
		b.WriteString("</div>\n")
		if len(n.Children) > 0 {
			r.writeBlock(b, indent+indentUnit, indentWrapper, n.Children, level+2)
		}
	}
}

func (r *Renderer) writeBlock(b *strings.Builder, indent, open string, children []*Node, childLevel int) {
	b.WriteString(indent)
	b.WriteString(open)
	b.WriteString("\n")
	for _, child := range children {
		r.write(b, child, childLevel)
	}
	b.WriteString(indent)
	b.WriteString("</div>\n")
}

func classAttr(class string) string {
	if class == "" {
		return ""
	}
	return ` class="` + class + `"`
}
