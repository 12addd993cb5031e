package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Metadata keys set on every loaded document.
const (
	MetadataSource = "source"
	MetadataTitle  = "title"
	MetadataType   = "type"
)

// DefaultExtensions are the file types Loader picks up.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".html", ".htm"}

// Loader reads a directory tree into one document per supported file.
type Loader struct {
	extensions []string
	policy     *bluemonday.Policy
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExtensions restricts the loader to the given extensions.
func WithExtensions(exts ...string) LoaderOption {
	return func(l *Loader) {
		l.extensions = l.extensions[:0]
		for _, ext := range exts {
			l.extensions = append(l.extensions, strings.ToLower(ext))
		}
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		extensions: slices.Clone(DefaultExtensions),
		policy:     bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Supports reports whether path has a supported extension.
func (l *Loader) Supports(path string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(path)))
}

// Load walks dir and returns the documents of every supported file with
// non-blank text, plus the number of supported files seen. The source
// metadata is the slash separated path relative to dir.
func (l *Loader) Load(ctx context.Context, dir string) ([]schema.Document, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open document directory: %w", err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%s is not a directory", dir)
	}

	var (
		docs  []schema.Document
		files int
	)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !l.Supports(path) {
			return nil
		}
		files++

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		doc, err := l.LoadFile(ctx, path)
		if err != nil {
			return err
		}
		if doc.PageContent == "" {
			return nil
		}
		doc.Metadata[MetadataSource] = filepath.ToSlash(rel)
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, files, err
	}
	return docs, files, nil
}

// LoadFile converts a single file to a document. Markdown and HTML are
// reduced to their visible text.
func (l *Loader) LoadFile(ctx context.Context, path string) (schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var text, title, kind string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		kind = "markdown"
		text, title, err = l.fromHTML(markdownToHTML(raw), false)
	case ".html", ".htm":
		kind = "html"
		text, title, err = l.fromHTML(raw, true)
	default:
		kind = "text"
		text, err = loadText(ctx, raw)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return schema.Document{
		PageContent: normalize(text),
		Metadata: map[string]any{
			MetadataSource: path,
			MetadataTitle:  title,
			MetadataType:   kind,
		},
	}, nil
}

func loadText(ctx context.Context, raw []byte) (string, error) {
	docs, err := documentloaders.NewText(bytes.NewReader(raw)).Load(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.PageContent)
	}
	return strings.Join(parts, "\n"), nil
}

func markdownToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}

// fromHTML extracts the title and the visible text. Untrusted markup is
// sanitized first.
func (l *Loader) fromHTML(raw []byte, sanitize bool) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if sanitize {
		doc.Find("head").Remove()
		body, err := doc.Html()
		if err != nil {
			return "", "", err
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(l.policy.Sanitize(body)))
		if err != nil {
			return "", "", err
		}
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	// Whitespace between list items and table rows would turn every item
	// into its own paragraph.
	doc.Find("ul, ol, table, thead, tbody, tfoot, tr").Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "#text" && strings.TrimSpace(s.Text()) == ""
	}).Remove()
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return doc.Text(), title, nil
}

// normalize trims every line and collapses runs of blank lines.
func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
