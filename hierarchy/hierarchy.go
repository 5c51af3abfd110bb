// Package hierarchy resolves the agency forest from eCFR administrative
// data: parent/child structure, slug lookup, and each agency's CFR
// references. The resolved tree is immutable once built and safe to share
// across workers.
package hierarchy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/c360studio/ecfrscan/cfr"
)

// Common hierarchy errors.
var (
	// ErrMissingData is returned when the agencies file is absent.
	ErrMissingData = errors.New("agency data not found")
	// ErrSchemaMismatch is returned when a record lacks required fields.
	ErrSchemaMismatch = errors.New("agency record missing required fields")
)

// Agency is one node in the agency forest. A slug appears exactly once as
// a node; the same CFR reference may appear on several nodes.
type Agency struct {
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Children      []*Agency       `json:"children,omitempty"`
	CFRReferences []cfr.Reference `json:"cfr_references,omitempty"`
}

// agenciesFile mirrors the eCFR admin API agencies document.
type agenciesFile struct {
	Agencies []*Agency `json:"agencies"`
}

// Hierarchy is the resolved agency forest with lookup indexes.
type Hierarchy struct {
	roots  []*Agency
	bySlug map[string]*Agency
	parent map[string]string

	// skipped counts records dropped at the input boundary.
	skipped int
}

// Load reads and resolves an agencies.json file.
func Load(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingData, path)
		}
		return nil, fmt.Errorf("read agencies file: %w", err)
	}
	return Parse(data)
}

// Parse resolves agency data from raw JSON.
func Parse(data []byte) (*Hierarchy, error) {
	var file agenciesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse agencies file: %w", err)
	}
	return Build(file.Agencies)
}

// Build resolves a forest from already-decoded roots. Agencies without a
// slug are skipped and counted rather than failing the whole load.
func Build(roots []*Agency) (*Hierarchy, error) {
	h := &Hierarchy{
		bySlug: make(map[string]*Agency),
		parent: make(map[string]string),
	}
	for _, root := range roots {
		kept, err := h.index(root, "")
		if err != nil {
			return nil, err
		}
		if kept {
			h.roots = append(h.roots, root)
		}
	}
	return h, nil
}

func (h *Hierarchy) index(a *Agency, parentSlug string) (bool, error) {
	if a == nil {
		return false, nil
	}
	if a.Slug == "" {
		h.skipped++
		return false, nil
	}
	if _, dup := h.bySlug[a.Slug]; dup {
		return false, fmt.Errorf("%w: duplicate slug %q", ErrSchemaMismatch, a.Slug)
	}
	h.bySlug[a.Slug] = a
	if parentSlug != "" {
		h.parent[a.Slug] = parentSlug
	}

	kept := a.Children[:0]
	for _, child := range a.Children {
		ok, err := h.index(child, a.Slug)
		if err != nil {
			return false, err
		}
		if ok {
			kept = append(kept, child)
		}
	}
	a.Children = kept
	return true, nil
}

// Roots returns the top-level agencies in input order.
func (h *Hierarchy) Roots() []*Agency {
	return h.roots
}

// Lookup returns the agency for a slug, or nil when unknown.
func (h *Hierarchy) Lookup(slug string) *Agency {
	return h.bySlug[slug]
}

// Parent returns the immediate parent slug of a child, or "" for a root
// or unknown slug.
func (h *Hierarchy) Parent(slug string) string {
	return h.parent[slug]
}

// Slugs returns every known slug in lexical order.
func (h *Hierarchy) Slugs() []string {
	slugs := make([]string, 0, len(h.bySlug))
	for s := range h.bySlug {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// Skipped reports how many agency records were dropped for missing slugs.
func (h *Hierarchy) Skipped() int {
	return h.skipped
}

// References returns each agency's directly-held CFR references, keyed by
// slug. Child references stay with the child; rollup happens at read time.
func (h *Hierarchy) References() map[string][]cfr.Reference {
	refs := make(map[string][]cfr.Reference, len(h.bySlug))
	for slug, a := range h.bySlug {
		if len(a.CFRReferences) > 0 {
			refs[slug] = a.CFRReferences
		}
	}
	return refs
}

// TitleAgencies maps each CFR title number to the slugs referencing it,
// in lexical order.
func (h *Hierarchy) TitleAgencies() map[int][]string {
	byTitle := make(map[int]map[string]struct{})
	for slug, a := range h.bySlug {
		for _, ref := range a.CFRReferences {
			if ref.Title <= 0 {
				continue
			}
			if byTitle[ref.Title] == nil {
				byTitle[ref.Title] = make(map[string]struct{})
			}
			byTitle[ref.Title][slug] = struct{}{}
		}
	}
	out := make(map[int][]string, len(byTitle))
	for title, set := range byTitle {
		slugs := make([]string, 0, len(set))
		for s := range set {
			slugs = append(slugs, s)
		}
		sort.Strings(slugs)
		out[title] = slugs
	}
	return out
}

// Walk visits every agency depth-first, parents before children.
func (h *Hierarchy) Walk(fn func(a *Agency, depth int)) {
	var visit func(a *Agency, depth int)
	visit = func(a *Agency, depth int) {
		fn(a, depth)
		for _, c := range a.Children {
			visit(c, depth+1)
		}
	}
	for _, root := range h.roots {
		visit(root, 0)
	}
}
