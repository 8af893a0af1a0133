package convert

import (
	"strings"
	"testing"

	"github.com/foomo/jsonhtml/pkg/jsonvalue"
	"github.com/foomo/jsonhtml/pkg/metrics"
	"github.com/foomo/jsonhtml/pkg/outline"
	"github.com/foomo/jsonhtml/pkg/page"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const modList = `[
	{"Base": null, "class": "title"},
	[
		{"item": {"link": {"name": "JEI", "href": "https://example.com/jei"}}},
		{"item": "Mouse Tweaks", "class": "note"},
		[{"Key": "Shift + Click"}, {"text": "moves all", "link": null}],
		{"Config": {"enabled": true, "count": 0}}
	],
	{"class": "spacer"},
	["tail"]
]`

func TestConvert_Fragment(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	res, err := c.Convert([]byte(`[{"text": "Header"}, [{"text": "A"}]]`), FormatJSON, "test")
	require.NoError(t, err)
	assert.Equal(t, "<div>Header</div>\n  <div class=\"indent\">\n    <div>A</div>\n  </div>\n", res.HTML)
	assert.Equal(t, 2, res.Nodes)
}

func TestConvert_Page(t *testing.T) {
	tmpl, err := page.New(page.WithTitle("Mods"))
	require.NoError(t, err)
	c := New(zaptest.NewLogger(t), WithPage(tmpl), WithVerify(true))

	res, err := c.Convert([]byte(modList), FormatJSON, "test")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.HTML, "<!DOCTYPE html>"))
	assert.Contains(t, res.HTML, "\n  <div class=\"title\">Base :</div>\n")
	assert.Contains(t, res.HTML, `<div>・ <a href="https://example.com/jei">JEI</a></div>`)
	assert.Contains(t, res.HTML, `<div class="note">・ Mouse Tweaks</div>`)
	assert.Contains(t, res.HTML, `<div>Config : enabled: true</div>`)
	assert.Contains(t, res.HTML, `<div class="spacer">`)
	assert.NoError(t, CheckBalance(res.HTML))
}

func TestConvert_StructuralBalance(t *testing.T) {
	c := New(zaptest.NewLogger(t), WithVerify(true))
	for _, doc := range []string{
		modList,
		`"hello"`,
		`null`,
		`[[[["deep"]]], {"class": "x"}, [], {"a": null, "children": [["b"], "c"]}]`,
		`{"item": "x", "children": [{"class": "c"}, [{"item": "y"}]]}`,
	} {
		res, err := c.Convert([]byte(doc), FormatJSON, "test")
		require.NoError(t, err, doc)
		assert.NoError(t, CheckBalance(res.HTML), doc)
		assert.Equal(t, strings.Count(res.HTML, "<div"), strings.Count(res.HTML, "</div>"), doc)
	}
}

func TestConvert_Select(t *testing.T) {
	c := New(zaptest.NewLogger(t), WithSelect("pages.mods"))

	res, err := c.Convert([]byte(`{"pages": {"mods": [{"text": "A"}]}}`), FormatJSON, "test")
	require.NoError(t, err)
	assert.Equal(t, "<div>A</div>\n", res.HTML)

	_, err = c.Convert([]byte(`{"pages": {}}`), FormatJSON, "test")
	assert.ErrorIs(t, err, jsonvalue.ErrPathNotFound)

	_, err = c.Convert([]byte("a: b\n"), FormatYAML, "test")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestConvert_YAML(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	res, err := c.Convert([]byte("- text: Header\n- - text: A\n  - item: B\n"), FormatYAML, "test")
	require.NoError(t, err)
	assert.Equal(t, "<div>Header</div>\n  <div class=\"indent\">\n    <div>A</div>\n    <div>・ B</div>\n  </div>\n", res.HTML)
}

func TestConvert_InvalidJSON(t *testing.T) {
	c := New(zaptest.NewLogger(t))
	before := testutil.ToFloat64(metrics.ConversionCounter.WithLabelValues("test-invalid", metrics.StatusError))

	_, err := c.Convert([]byte(`{"text": `), FormatJSON, "test-invalid")
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonvalue.ErrSyntax)

	after := testutil.ToFloat64(metrics.ConversionCounter.WithLabelValues("test-invalid", metrics.StatusError))
	assert.InDelta(t, before+1, after, 0.0001)
}

func TestConvert_Filters(t *testing.T) {
	c := New(zaptest.NewLogger(t), WithRenderer(outline.NewRenderer(outline.WithFilters(Filters(false, true)...))))

	res, err := c.Convert([]byte(`{"text": "<script>alert(1)</script><b>ok</b>"}`), FormatJSON, "test")
	require.NoError(t, err)
	assert.Equal(t, "<div><b>ok</b></div>\n", res.HTML)
}

func TestConvert_IndentLevel(t *testing.T) {
	c := New(zaptest.NewLogger(t), WithIndentLevel(2))

	res, err := c.Convert([]byte(`"x"`), FormatJSON, "test")
	require.NoError(t, err)
	assert.Equal(t, "    <div>x</div>\n", res.HTML)
}

func TestFormatFromPath(t *testing.T) {
	for p, want := range map[string]Format{
		"a/b.json":                       FormatJSON,
		"B.JSON":                         FormatJSON,
		"c.yaml":                         FormatYAML,
		"c.yml":                          FormatYAML,
		"https://example.com/d.json?x=1": FormatJSON,
	} {
		got, err := FormatFromPath(p)
		require.NoError(t, err, p)
		assert.Equal(t, want, got, p)
	}

	_, err := FormatFromPath("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
