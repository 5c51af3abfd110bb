package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"

	"github.com/c360studio/ecfrscan/cfr"
)

// Store locates and caches per-title corpus files. Title documents are
// parsed once and shared; extracted reference text is cached by canonical
// key so a reference shared by several agencies is extracted exactly once.
// Safe for concurrent use.
type Store struct {
	textDir        string
	correctionsDir string
	log            *slog.Logger

	mu    sync.Mutex
	docs  map[int]*html.Node
	texts map[cfr.Key]extracted
}

type extracted struct {
	text string
	desc string
}

// NewStore creates a Store over the given text and corrections
// directories.
func NewStore(textDir, correctionsDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		textDir:        textDir,
		correctionsDir: correctionsDir,
		log:            logger,
		docs:           make(map[int]*html.Node),
		texts:          make(map[cfr.Key]extracted),
	}
}

// Titles discovers which CFR titles have full-text files available,
// in ascending order.
func (s *Store) Titles() ([]int, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(s.textDir, "**", "title_*_full_text.xml"))
	if err != nil {
		return nil, fmt.Errorf("scan text dir: %w", err)
	}
	seen := make(map[int]struct{})
	for _, m := range matches {
		if n, ok := titleNumber(filepath.Base(m)); ok {
			seen[n] = struct{}{}
		}
	}
	titles := make([]int, 0, len(seen))
	for n := range seen {
		titles = append(titles, n)
	}
	sort.Ints(titles)
	return titles, nil
}

// TitleFile returns the newest full-text file for a title. Files carry a
// date segment (title_1_2024-01-01_full_text.xml); when several snapshots
// exist the latest date wins.
func (s *Store) TitleFile(title int) (string, error) {
	pattern := filepath.Join(s.textDir, "**", fmt.Sprintf("title_%d_*_full_text.xml", title))
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob title %d: %w", title, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no full-text file for title %d under %s", ErrMissingData, title, s.textDir)
	}
	sort.Slice(matches, func(i, j int) bool {
		return fileDate(matches[i]) > fileDate(matches[j])
	})
	return matches[0], nil
}

// ExtractText returns the regulation text and description for a
// reference, extracting and caching on first use.
func (s *Store) ExtractText(ref cfr.Reference) (string, string, error) {
	key := ref.Key()

	s.mu.Lock()
	if hit, ok := s.texts[key]; ok {
		s.mu.Unlock()
		return hit.text, hit.desc, nil
	}
	doc, err := s.loadTitleLocked(ref.Title)
	s.mu.Unlock()
	if err != nil {
		return "", "", err
	}

	// Extraction walks the shared parsed tree read-only.
	text, desc := Extract(doc, ref)

	s.mu.Lock()
	s.texts[key] = extracted{text: text, desc: desc}
	s.mu.Unlock()

	s.log.Debug("extracted reference text",
		slog.String("ref", string(key)),
		slog.Int("chars", len(text)))
	return text, desc, nil
}

// loadTitleLocked parses and caches the title document. Caller holds mu.
func (s *Store) loadTitleLocked(title int) (*html.Node, error) {
	if doc, ok := s.docs[title]; ok {
		return doc, nil
	}
	path, err := s.TitleFile(title)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open title %d: %w", title, err)
	}
	defer f.Close()

	// html.Parse is deliberately lenient; eCFR XML is not always
	// well-formed and a strict parser would reject whole titles.
	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse title %d: %w", title, err)
	}
	s.docs[title] = doc
	s.log.Info("loaded title text", slog.Int("title", title), slog.String("file", filepath.Base(path)))
	return doc, nil
}

// Evict drops a cached title document. The extracted-text cache survives,
// matching the loader's memory behavior on large corpora.
func (s *Store) Evict(title int) {
	s.mu.Lock()
	delete(s.docs, title)
	s.mu.Unlock()
}

// titleNumber parses the title number out of a corpus filename.
func titleNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "title_")
	if !ok {
		return 0, false
	}
	numStr, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// fileDate pulls the date segment from title_<n>_<date>_full_text.xml,
// or "" when the name has no date.
func fileDate(path string) string {
	parts := strings.Split(strings.TrimSuffix(filepath.Base(path), ".xml"), "_")
	if len(parts) >= 4 {
		return parts[2]
	}
	return ""
}
