package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Markdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# Widgets\n\nA **widget** is a small part.\n\n- cheap\n- round\n")

	doc, err := NewLoader().LoadFile(context.Background(), filepath.Join(dir, "guide.md"))
	require.NoError(t, err)

	assert.Equal(t, "Widgets", doc.Metadata[MetadataTitle])
	assert.Equal(t, "markdown", doc.Metadata[MetadataType])
	assert.Contains(t, doc.PageContent, "A widget is a small part.")
	assert.Contains(t, doc.PageContent, "cheap\nround")
	assert.NotContains(t, doc.PageContent, "**")
	assert.NotContains(t, doc.PageContent, "<p>")
}

func TestLoader_ListsKeepOneLinePerItem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "parts.md", "Parts:\n\n- bolt\n- nut\n- washer\n\nEnd.\n")
	writeFile(t, dir, "table.html", "<table>\n<tr><td>a</td></tr>\n<tr><td>b</td></tr>\n</table>")

	doc, err := NewLoader().LoadFile(context.Background(), filepath.Join(dir, "parts.md"))
	require.NoError(t, err)
	assert.Equal(t, "Parts:\n\nbolt\nnut\nwasher\n\nEnd.", doc.PageContent)

	doc, err = NewLoader().LoadFile(context.Background(), filepath.Join(dir, "table.html"))
	require.NoError(t, err)
	assert.Contains(t, doc.PageContent, "a\nb")
}

func TestLoader_HTML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html><head><title>Gadgets</title><style>p{color:red}</style></head>
<body><h1>Heading</h1><p>Gadgets are <b>useful</b>.</p><script>alert("x")</script>
<p onclick="steal()">Second paragraph.</p></body></html>`)

	doc, err := NewLoader().LoadFile(context.Background(), filepath.Join(dir, "page.html"))
	require.NoError(t, err)

	assert.Equal(t, "Gadgets", doc.Metadata[MetadataTitle])
	assert.Contains(t, doc.PageContent, "Gadgets are useful.")
	assert.Contains(t, doc.PageContent, "Second paragraph.")
	assert.NotContains(t, doc.PageContent, "alert")
	assert.NotContains(t, doc.PageContent, "color:red")
}

func TestLoader_Text(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "  line one  \r\n\r\n\r\nline two\n")

	doc, err := NewLoader().LoadFile(context.Background(), filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)

	assert.Equal(t, "notes", doc.Metadata[MetadataTitle])
	assert.Equal(t, "line one\n\nline two", doc.PageContent)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\nalpha")
	writeFile(t, dir, "sub/b.txt", "beta")
	writeFile(t, dir, "sub/empty.txt", "   \n")
	writeFile(t, dir, "image.png", "binary")

	docs, files, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, files)
	require.Len(t, docs, 2)
	var sources []string
	for _, d := range docs {
		sources = append(sources, d.Metadata[MetadataSource].(string))
	}
	assert.ElementsMatch(t, []string{"a.md", "sub/b.txt"}, sources)
}

func TestLoader_Extensions(t *testing.T) {
	l := NewLoader(WithExtensions(".TXT"))
	assert.True(t, l.Supports("x.txt"))
	assert.False(t, l.Supports("x.md"))
}

func TestLoader_MissingDir(t *testing.T) {
	_, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\n\nb\nc", normalize("\n\n  a \n\n\n\n b\nc  \n\n"))
	assert.Equal(t, "", normalize(" \n \n"))
}
