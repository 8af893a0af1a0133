package convert

import (
	"bytes"
	"strings"

	"github.com/foomo/jsonhtml/pkg/outline"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown renders line content as markdown. Raw html in the content is kept,
// a single paragraph is unwrapped so the line stays inline.
func Markdown() outline.Filter {
	md := goldmark.New(
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)
	return func(content string) string {
		var buf bytes.Buffer
		if err := md.Convert([]byte(content), &buf); err != nil {
			return content
		}
		out := strings.TrimSpace(buf.String())
		if strings.Count(out, "<p>") == 1 && strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") {
			out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
		}
		return out
	}
}

// Sanitize strips markup that is not safe for user generated content
func Sanitize() outline.Filter {
	p := bluemonday.UGCPolicy()
	return p.Sanitize
}

// Filters returns the content filters in their application order
func Filters(markdown, sanitize bool) []outline.Filter {
	var ret []outline.Filter
	if markdown {
		ret = append(ret, Markdown())
	}
	if sanitize {
		ret = append(ret, Sanitize())
	}
	return ret
}
