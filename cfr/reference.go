// Package cfr provides types for Code of Federal Regulations citations.
//
// A Reference identifies a citation at some granularity (title down to
// section). Its Key form is a canonical, collision-free string used as the
// map key throughout aggregation and in persisted artifacts.
package cfr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reference identifies a CFR citation. Title is always present; deeper
// levels are optional and empty when the citation stops above them.
type Reference struct {
	Title      int    `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Chapter    string `json:"chapter,omitempty"`
	Subchapter string `json:"subchapter,omitempty"`
	Part       string `json:"part,omitempty"`
	Section    string `json:"section,omitempty"`
}

// Key is the canonical string form of a Reference. Levels are tagged and
// values escaped, so two distinct references can never share a key even
// when intermediate levels are empty.
type Key string

// level tags, in hierarchy order.
const (
	tagTitle      = "title"
	tagSubtitle   = "subtitle"
	tagChapter    = "chapter"
	tagSubchapter = "subchapter"
	tagPart       = "part"
	tagSection    = "section"
)

var escaper = strings.NewReplacer("%", "%25", "/", "%2F", "=", "%3D")

var unescaper = strings.NewReplacer("%2F", "/", "%3D", "=", "%25", "%")

// Key returns the canonical key for the reference. Empty levels are
// omitted; present levels appear as tag=value segments joined by "/".
func (r Reference) Key() Key {
	segs := make([]string, 0, 6)
	segs = append(segs, tagTitle+"="+strconv.Itoa(r.Title))
	for _, lv := range []struct {
		tag   string
		value string
	}{
		{tagSubtitle, r.Subtitle},
		{tagChapter, r.Chapter},
		{tagSubchapter, r.Subchapter},
		{tagPart, r.Part},
		{tagSection, r.Section},
	} {
		if lv.value != "" {
			segs = append(segs, lv.tag+"="+escaper.Replace(lv.value))
		}
	}
	return Key(strings.Join(segs, "/"))
}

// ParseKey reconstructs a Reference from its canonical key.
func ParseKey(k Key) (Reference, error) {
	var r Reference
	seenTitle := false
	for _, seg := range strings.Split(string(k), "/") {
		tag, value, ok := strings.Cut(seg, "=")
		if !ok {
			return Reference{}, fmt.Errorf("malformed key segment %q in %q", seg, k)
		}
		value = unescaper.Replace(value)
		switch tag {
		case tagTitle:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Reference{}, fmt.Errorf("invalid title in key %q: %w", k, err)
			}
			r.Title = n
			seenTitle = true
		case tagSubtitle:
			r.Subtitle = value
		case tagChapter:
			r.Chapter = value
		case tagSubchapter:
			r.Subchapter = value
		case tagPart:
			r.Part = value
		case tagSection:
			r.Section = value
		default:
			return Reference{}, fmt.Errorf("unknown level %q in key %q", tag, k)
		}
	}
	if !seenTitle {
		return Reference{}, fmt.Errorf("key %q has no title level", k)
	}
	return r, nil
}

// String returns the key form.
func (r Reference) String() string {
	return string(r.Key())
}

// Describe returns a human-readable citation description, e.g.
// "Title 40, Chapter I, Part 50".
func (r Reference) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title %d", r.Title)
	for _, lv := range []struct {
		label string
		value string
	}{
		{"Subtitle", r.Subtitle},
		{"Chapter", r.Chapter},
		{"Subchapter", r.Subchapter},
		{"Part", r.Part},
		{"Section", r.Section},
	} {
		if lv.value != "" {
			fmt.Fprintf(&sb, ", %s %s", lv.label, lv.value)
		}
	}
	return sb.String()
}

// SortKeys returns the keys of a reference-keyed map in lexical order,
// for deterministic iteration.
func SortKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
