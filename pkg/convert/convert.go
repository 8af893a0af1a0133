package convert

import (
	"path"
	"strings"
	"time"

	"github.com/foomo/jsonhtml/pkg/jsonvalue"
	"github.com/foomo/jsonhtml/pkg/metrics"
	"github.com/foomo/jsonhtml/pkg/outline"
	"github.com/foomo/jsonhtml/pkg/page"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Format of an input document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported input format")

type (
	Converter struct {
		l           *zap.Logger
		renderer    *outline.Renderer
		page        *page.Template
		selectPath  string
		verify      bool
		indentLevel int
	}
	Option func(*Converter)
	// Result of a single conversion
	Result struct {
		HTML  string
		Nodes int
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New returns a converter producing plain fragments unless a page is configured.
func New(l *zap.Logger, opts ...Option) *Converter {
	inst := &Converter{
		l:           l.Named("convert"),
		renderer:    outline.NewRenderer(),
		indentLevel: -1,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.indentLevel < 0 {
		inst.indentLevel = 0
		if inst.page != nil {
			inst.indentLevel = 1
		}
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithRenderer(v *outline.Renderer) Option {
	return func(o *Converter) {
		o.renderer = v
	}
}

// WithPage wraps every fragment into the page template
func WithPage(v *page.Template) Option {
	return func(o *Converter) {
		o.page = v
	}
}

// WithSelect converts only the part of a json document found at the given gjson path
func WithSelect(v string) Option {
	return func(o *Converter) {
		o.selectPath = v
	}
}

// WithVerify checks the produced html for unbalanced tags
func WithVerify(v bool) Option {
	return func(o *Converter) {
		o.verify = v
	}
}

func WithIndentLevel(v int) Option {
	return func(o *Converter) {
		o.indentLevel = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// FormatFromPath guesses the input format from a file name or url path
func FormatFromPath(p string) (Format, error) {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "file %q", p)
	}
}

// Decode turns raw bytes into a document value
func (c *Converter) Decode(data []byte, format Format) (jsonvalue.Value, error) {
	switch format {
	case FormatJSON, "":
		sub, err := jsonvalue.Select(data, c.selectPath)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.DecodeJSON(sub)
	case FormatYAML:
		if c.selectPath != "" {
			return jsonvalue.Value{}, errors.Wrap(ErrUnsupportedFormat, "select is only supported for json")
		}
		return jsonvalue.DecodeYAML(data)
	default:
		return jsonvalue.Value{}, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
}

// Convert decodes data and renders it. source labels metrics and logs.
func (c *Converter) Convert(data []byte, format Format, source string) (*Result, error) {
	start := time.Now()
	res, err := c.convert(data, format)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		c.l.Debug("conversion failed", zap.String("source", source), zap.Error(err))
	} else {
		metrics.NodesBuiltCounter.WithLabelValues(source).Add(float64(res.Nodes))
	}
	metrics.ConversionCounter.WithLabelValues(source, status).Inc()
	metrics.ConversionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	return res, err
}

// ConvertValue renders an already decoded document
func (c *Converter) ConvertValue(v jsonvalue.Value) (*Result, error) {
	nodes := outline.Build(v)
	fragment := c.renderer.RenderAll(nodes, c.indentLevel)

	html := fragment
	if c.page != nil {
		var err error
		if html, err = c.page.Wrap(fragment); err != nil {
			return nil, err
		}
	}

	if c.verify {
		if err := CheckBalance(html); err != nil {
			return nil, err
		}
	}

	return &Result{
		HTML:  html,
		Nodes: outline.Count(nodes),
	}, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Converter) convert(data []byte, format Format) (*Result, error) {
	v, err := c.Decode(data, format)
	if err != nil {
		return nil, err
	}
	return c.ConvertValue(v)
}
