package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/jsonhtml/pkg/jsonvalue"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestConvert_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "mods.json", `[{"text": "Modifier keys"}, [{"item": "Shift"}, {"item": "Ctrl"}]]`)

	_, err := execute(t, "", "convert", "mods.json")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "output.html"))
	require.NoError(t, err)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	assert.Equal(t, "Index", doc.Find("title").Text())
	assert.Equal(t, "ja", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Modifier keys", doc.Find("#content .inner > div").First().Text())
	assert.Equal(t, 2, doc.Find("#content div.indent > div").Length())
}

func TestConvert_Stdout(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "a.json", `{"Base": null, "item": "Shift"}`)

	out, err := execute(t, "", "convert", "--fragment", input, "-")
	require.NoError(t, err)
	assert.Equal(t, "<div>・ Base : Shift</div>\n", out)
}

func TestConvert_Stdin(t *testing.T) {
	out, err := execute(t, `["a", null, "b"]`, "convert", "--fragment", "-", "-")
	require.NoError(t, err)
	assert.Equal(t, "<div>a</div>\n<div>b</div>\n", out)
}

func TestConvert_StdinYAML(t *testing.T) {
	out, err := execute(t, "- item: a\n", "convert", "--fragment", "--format", "yaml", "-", "-")
	require.NoError(t, err)
	assert.Equal(t, "<div>・ a</div>\n", out)
}

func TestConvert_Select(t *testing.T) {
	out, err := execute(t, `{"data": {"items": [{"item": "x"}]}}`, "convert", "--fragment", "--select", "data.items", "-", "-")
	require.NoError(t, err)
	assert.Equal(t, "<div>・ x</div>\n", out)
}

func TestConvert_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "remote"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "", "convert", "--fragment", srv.URL+"/doc.json", "-")
	require.NoError(t, err)
	assert.Equal(t, "<div>remote</div>\n", out)
}

func TestConvert_MissingInput(t *testing.T) {
	_, err := execute(t, "", "convert", filepath.Join(t.TempDir(), "missing.json"), "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file not found")
}

func TestConvert_InvalidJSON(t *testing.T) {
	input := writeFile(t, t.TempDir(), "broken.json", `{"text": `)

	_, err := execute(t, "", "convert", input, "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonvalue.ErrSyntax)
	assert.Contains(t, err.Error(), input)
}

func TestConvert_UnknownFormat(t *testing.T) {
	_, err := execute(t, `"a"`, "convert", "--format", "toml", "-", "-")
	require.Error(t, err)
}

func TestConvert_PageConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "page:\n  title: Keys\n  tagline: All modifier keys\n  lang: en\n")

	out, err := execute(t, `"x"`, "convert", "--config", cfg, "--page-lang", "de", "-", "-")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "Keys", doc.Find("title").Text())
	assert.Equal(t, "Keys", doc.Find("h1").Text())
	assert.Equal(t, "All modifier keys", doc.Find("header p").Text())
	// flags win over the config file
	assert.Equal(t, "de", doc.Find("html").AttrOr("lang", ""))
}

func TestConvert_PageEnv(t *testing.T) {
	t.Setenv("JSONHTML_PAGE_TITLE", "From env")

	out, err := execute(t, `"x"`, "convert", "-", "-")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "From env", doc.Find("title").Text())
}

func TestBatch(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, src, "index.json", `{"text": "Home"}`)
	writeFile(t, src, "mods/keys.yaml", "- item: Shift\n")

	out, err := execute(t, "", "batch", "--fragment", "--output-dir", dst, src)
	require.NoError(t, err)
	assert.Equal(t, "converted index.html\nconverted mods/keys.html\n", out)

	data, err := os.ReadFile(filepath.Join(dst, "mods", "keys.html"))
	require.NoError(t, err)
	assert.Equal(t, "<div>・ Shift</div>\n", string(data))
}

func TestBatch_Failed(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "ok.json", `"ok"`)
	writeFile(t, src, "broken.json", `[`)

	out, err := execute(t, "", "batch", "--output-dir", t.TempDir(), src)
	require.Error(t, err)
	assert.Contains(t, out, "converted ok.html")
	assert.Contains(t, out, "failed broken.json")
}

func TestBatch_MissingDir(t *testing.T) {
	_, err := execute(t, "", "batch", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory not found")
}

func TestServe_InvalidFlags(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "", "serve", "--poll", "--poll-interval", "0s", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll-interval must be positive")

	_, err = execute(t, "", "serve", "--history-limit", "-1", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history-limit must not be negative")
}

func TestCreateStorage(t *testing.T) {
	ctx := context.Background()
	l := zaptest.NewLogger(t)

	v := viper.New()
	v.Set("storage.type", "blob")
	v.Set("storage.blob.bucket", "mem://")
	s, err := createStorage(ctx, v, l)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	v.Set("storage.blob.bucket", "s3://bucket")
	_, err = createStorage(ctx, v, l)
	assert.Error(t, err)

	v.Set("storage.blob.bucket", "")
	_, err = createStorage(ctx, v, l)
	assert.Error(t, err)

	v.Set("storage.type", "ftp")
	_, err = createStorage(ctx, v, l)
	assert.Error(t, err)

	v = viper.New()
	v.Set("output.dir", t.TempDir())
	s, err = createStorage(ctx, v, l)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestBlobProvider(t *testing.T) {
	provider, ok := blobProvider("gs://pages")
	assert.True(t, ok)
	assert.Equal(t, "Google Cloud Storage", provider)

	provider, ok = blobProvider("mem://")
	assert.True(t, ok)
	assert.Equal(t, "In-Memory", provider)

	_, ok = blobProvider("file:///tmp")
	assert.False(t, ok)

	assert.Equal(t, "gs://, mem://", blobSchemes())
}
