package knowledge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark/ast"
	"gopkg.in/yaml.v3"
)

// IndexedExcerptLimit is the excerpt budget used when building an index
// from markdown files. It is wider than [ExcerptLimit] because it keeps
// only the first paragraph.
const IndexedExcerptLimit = 220

// SourceSpec names a markdown file or a directory of markdown files,
// relative to the workspace root, and the category its notes belong to.
type SourceSpec struct {
	Path     string
	Dir      bool
	Category Category
}

// DefaultSources is the workspace layout indexed by default.
var DefaultSources = []SourceSpec{
	{Path: "MEMORY.md", Category: Memory},
	{Path: "memory/weekly", Dir: true, Category: Weekly},
	{Path: "research", Dir: true, Category: Research},
	{Path: "DECISION_FRAMEWORK.md", Category: Rules},
	{Path: "COMMUNICATION_STYLE.md", Category: Rules},
	{Path: "TASTE.md", Category: Rules},
	{Path: "USER.md", Category: Rules},
}

// Build indexes the markdown notes under root. Missing sources are
// logged and skipped, as is any file that cannot be read. Items are
// ordered newest first, then by title.
func Build(root string, sources []SourceSpec, now time.Time, logger *slog.Logger) Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := Index{UpdatedAt: now.UTC().Format(time.RFC3339), Items: []Entry{}}
	for _, spec := range sources {
		for _, path := range listMarkdown(root, spec, logger) {
			e, err := buildEntry(root, path, spec.Category)
			if err != nil {
				logger.Warn("failed to index knowledge file", "path", path, "error", err)
				continue
			}
			idx.Items = append(idx.Items, e)
		}
	}
	sort.SliceStable(idx.Items, func(i, j int) bool {
		a, b := idx.Items[i], idx.Items[j]
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt > b.UpdatedAt
		}
		return a.Title < b.Title
	})
	return idx
}

// WriteFile stores idx as indented JSON, creating parent directories.
func WriteFile(path string, idx Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func listMarkdown(root string, spec SourceSpec, logger *slog.Logger) []string {
	abs := filepath.Join(root, spec.Path)
	if !spec.Dir {
		if _, err := os.Stat(abs); err != nil {
			logger.Warn("missing knowledge file", "path", abs)
			return nil
		}
		return []string{abs}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		logger.Warn("missing knowledge directory", "path", abs)
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			out = append(out, filepath.Join(abs, e.Name()))
		}
	}
	sort.Strings(out)
	return out
}

type frontmatter struct {
	Title string `yaml:"title"`
	Tags  any    `yaml:"tags"`
}

func buildEntry(root, path string, c Category) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Entry{}, err
	}
	rel = filepath.ToSlash(rel)
	content := string(data)

	front, body := splitFrontmatter(content)
	var fm frontmatter
	if front != "" {
		if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
			return Entry{}, fmt.Errorf("frontmatter: %w", err)
		}
	}

	doc, src := parse(body)
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = firstHeading(doc, src)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	tags := tagList(fm.Tags)
	if len(tags) == 0 {
		tags = bodyTags(body)
	}

	return Entry{
		ID:        rel,
		Title:     title,
		Path:      rel,
		Excerpt:   firstParagraph(doc, src, IndexedExcerptLimit),
		UpdatedAt: info.ModTime().UTC().Format(time.RFC3339),
		Tags:      tags,
		Category:  c,
		Content:   content,
	}, nil
}

func firstHeading(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= 2 {
			return nodeText(h, src)
		}
	}
	return ""
}

func firstParagraph(doc ast.Node, src []byte, limit int) string {
	var text string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if t := nodeText(n, src); t != "" {
				text = t
				return ast.WalkStop, nil
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit-len(ellipsis)]), " ") + ellipsis
}

// tagList accepts a YAML sequence or a comma separated string.
func tagList(v any) []string {
	var raw []string
	switch v := v.(type) {
	case []any:
		for _, t := range v {
			raw = append(raw, fmt.Sprint(t))
		}
	case string:
		raw = splitTags(v)
	}
	return dedupeTags(raw)
}

var bodyTagLine = regexp.MustCompile(`(?im)^tags?\s*:\s*(.+)$`)

func bodyTags(body string) []string {
	m := bodyTagLine.FindStringSubmatch(body)
	if m == nil {
		return []string{}
	}
	return dedupeTags(splitTags(m[1]))
}

func splitTags(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.Split(s, ",")
}

func dedupeTags(raw []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range raw {
		t = strings.Trim(strings.TrimSpace(t), `"'`)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
