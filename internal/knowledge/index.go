// Package knowledge loads the precomputed knowledge index: a JSON list
// of markdown notes with titles, tags, and short excerpts. The payload
// is untrusted, so every entry is normalized and malformed entries are
// dropped rather than failing the whole load.
package knowledge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category groups knowledge entries on the knowledge page.
type Category string

// Known categories.
const (
	Memory   Category = "Memory"
	Weekly   Category = "Weekly"
	Research Category = "Research"
	Rules    Category = "Rules"
)

// Categories lists every known category in display order.
var Categories = []Category{Memory, Weekly, Research, Rules}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Entry is one note in the index.
type Entry struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Path      string   `json:"path,omitempty"`
	Excerpt   string   `json:"excerpt"`
	UpdatedAt string   `json:"updatedAt"`
	Tags      []string `json:"tags"`
	Category  Category `json:"category"`
	Content   string   `json:"content"`
}

// Index is the whole knowledge payload.
type Index struct {
	UpdatedAt string  `json:"updatedAt,omitempty"`
	Items     []Entry `json:"items"`
}

// Parse decodes and normalizes an index payload. Only invalid JSON is
// an error; a payload of the wrong shape yields an empty index.
func Parse(raw []byte) (Index, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Index{}, fmt.Errorf("parse knowledge index: %w", err)
	}
	return Normalize(v, time.Now()), nil
}

// Normalize converts an arbitrary decoded JSON value into an Index.
// Entries without an id or title are dropped, an unknown category
// becomes [Memory], a blank excerpt is derived from the content, and a
// missing updatedAt is stamped with now.
func Normalize(v any, now time.Time) Index {
	obj, ok := v.(map[string]any)
	if !ok {
		return Index{Items: []Entry{}}
	}
	idx := Index{Items: []Entry{}}
	idx.UpdatedAt, _ = obj["updatedAt"].(string)

	rawItems, _ := obj["items"].([]any)
	for _, raw := range rawItems {
		if e, ok := normalizeEntry(raw, now); ok {
			idx.Items = append(idx.Items, e)
		}
	}
	return idx
}

func normalizeEntry(v any, now time.Time) (Entry, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Entry{}, false
	}
	str := func(key string) string {
		s, _ := obj[key].(string)
		return s
	}

	e := Entry{
		ID:        str("id"),
		Title:     str("title"),
		Path:      str("path"),
		Content:   str("content"),
		UpdatedAt: str("updatedAt"),
		Category:  Category(str("category")),
		Tags:      []string{},
	}
	if e.ID == "" || e.Title == "" {
		return Entry{}, false
	}
	if !e.Category.Valid() {
		e.Category = Memory
	}
	if tags, ok := obj["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				e.Tags = append(e.Tags, s)
			}
		}
	}
	e.Excerpt = strings.TrimSpace(str("excerpt"))
	if e.Excerpt == "" {
		e.Excerpt = Excerpt(e.Content, ExcerptLimit)
	}
	if e.UpdatedAt == "" {
		e.UpdatedAt = now.UTC().Format(time.RFC3339)
	}
	return e, true
}

// Filter returns the entries in category c whose title, excerpt, tags,
// or category contain query, case-insensitively, newest first. An empty
// c matches every category and an empty query matches every entry.
func (idx Index) Filter(c Category, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Entry{}
	for _, e := range idx.Items {
		if c != "" && e.Category != c {
			continue
		}
		if q != "" && !strings.Contains(e.haystack(), q) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

func (e Entry) haystack() string {
	return strings.ToLower(strings.Join([]string{e.Title, e.Excerpt, strings.Join(e.Tags, " "), string(e.Category)}, " "))
}
