package page

import (
	_ "embed"
	"html/template"
	"strings"

	"github.com/pkg/errors"
)

//go:embed page.html
var pageTemplate string

type (
	// Meta holds the values of the page around the rendered fragment
	Meta struct {
		Lang        string `mapstructure:"lang"`
		Title       string `mapstructure:"title"`
		Keywords    string `mapstructure:"keywords"`
		Description string `mapstructure:"description"`
		Stylesheet  string `mapstructure:"stylesheet"`
		Heading     string `mapstructure:"heading"`
		Tagline     string `mapstructure:"tagline"`
		Footer      string `mapstructure:"footer"`
	}
	Template struct {
		tmpl *template.Template
		meta Meta
	}
	Option func(*Meta)
	data   struct {
		Meta
		Content template.HTML
	}
)

// DefaultMeta returns the defaults used when no option overrides them
func DefaultMeta() Meta {
	return Meta{
		Lang:       "ja",
		Title:      "Index",
		Stylesheet: "style.css",
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(opts ...Option) (*Template, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page template")
	}
	inst := &Template{
		tmpl: tmpl,
		meta: DefaultMeta(),
	}
	for _, opt := range opts {
		opt(&inst.meta)
	}
	if inst.meta.Heading == "" {
		inst.meta.Heading = inst.meta.Title
	}
	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithMeta sets all non empty values of v
func WithMeta(v Meta) Option {
	return func(o *Meta) {
		set := func(dst *string, src string) {
			if src != "" {
				*dst = src
			}
		}
		set(&o.Lang, v.Lang)
		set(&o.Title, v.Title)
		set(&o.Keywords, v.Keywords)
		set(&o.Description, v.Description)
		set(&o.Stylesheet, v.Stylesheet)
		set(&o.Heading, v.Heading)
		set(&o.Tagline, v.Tagline)
		set(&o.Footer, v.Footer)
	}
}

func WithTitle(v string) Option {
	return func(o *Meta) {
		o.Title = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (t *Template) Meta() Meta {
	return t.meta
}

// Wrap places the fragment into the page. The fragment is trusted markup and
// is inserted as is.
func (t *Template) Wrap(fragment string) (string, error) {
	var b strings.Builder
	err := t.tmpl.Execute(&b, data{
		Meta:    t.meta,
		Content: template.HTML(fragment), //nolint:gosec
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to execute page template")
	}
	return b.String(), nil
}
