// Package ledger tracks which images have already been downloaded so the
// same content is never written to the collection twice, across runs and
// across sources.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"wallscraper/pkg/fingerprint"
	"wallscraper/pkg/logger"
)

// Ledger is a persistent set of SHA-256 content hashes with an optional
// perceptual-hash side table for near-duplicate detection. All methods are
// safe for concurrent use.
type Ledger struct {
	mu         sync.Mutex
	path       string
	hashes     map[string]struct{}
	perceptual map[string]uint64 // content hash -> dHash
	logger     logger.Logger
}

// fileFormat is the wrapped on-disk form. Legacy files containing a bare
// JSON array of hash strings are also accepted.
type fileFormat struct {
	Hashes     []string          `json:"hashes"`
	Perceptual map[string]string `json:"perceptual,omitempty"`
}

// New creates an empty ledger that persists to path.
func New(path string, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Ledger{
		path:       path,
		hashes:     make(map[string]struct{}),
		perceptual: make(map[string]uint64),
		logger:     log,
	}
}

// Load reads the ledger's own file plus any extra ledger files and merges
// their contents. Missing files are fine. Malformed files are skipped with
// a warning rather than aborting the run; the worst case is re-downloading
// an image the broken file knew about.
func (l *Ledger) Load(extraPaths ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths := append([]string{l.path}, extraPaths...)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := l.loadFile(path); err != nil {
			l.logger.WarnWithFields("skipping unreadable hash ledger", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	l.logger.InfoWithFields("hash ledger loaded", map[string]interface{}{
		"path":   l.path,
		"hashes": len(l.hashes),
	})
	return nil
}

func (l *Ledger) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	// Wrapped form first, then the legacy flat array.
	var wrapped fileFormat
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Hashes != nil {
		l.merge(wrapped.Hashes, wrapped.Perceptual)
		return nil
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		l.merge(flat, nil)
		return nil
	}

	return fmt.Errorf("unrecognized ledger format in %s", path)
}

func (l *Ledger) merge(hashes []string, perceptual map[string]string) {
	for _, h := range hashes {
		if h != "" {
			l.hashes[h] = struct{}{}
		}
	}
	for sha, encoded := range perceptual {
		v, err := strconv.ParseUint(encoded, 16, 64)
		if err != nil {
			continue
		}
		l.perceptual[sha] = v
	}
}

// Contains reports whether the content hash is already known.
func (l *Ledger) Contains(sha string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.hashes[sha]
	return ok
}

// Add records a content hash. It returns false if the hash was already
// present, which makes check-and-claim atomic for concurrent workers.
func (l *Ledger) Add(sha string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.hashes[sha]; ok {
		return false
	}
	l.hashes[sha] = struct{}{}
	return true
}

// Remove releases a content hash, typically to roll back a claim whose
// write failed so the image stays downloadable on a later run.
func (l *Ledger) Remove(sha string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hashes, sha)
	delete(l.perceptual, sha)
}

// AddPerceptual records the perceptual hash for a saved image.
func (l *Ledger) AddPerceptual(sha string, phash uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perceptual[sha] = phash
}

// NearDuplicate reports whether a known image lies within the given
// Hamming distance of phash, returning the closest match's content hash.
func (l *Ledger) NearDuplicate(phash uint64, threshold int) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bestSHA := ""
	bestDist := threshold + 1
	for sha, known := range l.perceptual {
		if d := fingerprint.Distance(phash, known); d < bestDist {
			bestDist = d
			bestSHA = sha
		}
	}
	return bestSHA, bestSHA != ""
}

// Len returns the number of known content hashes.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hashes)
}

// Flush writes the ledger atomically via a temp file and rename, so a
// crash mid-write never corrupts the previous ledger.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := fileFormat{
		Hashes:     make([]string, 0, len(l.hashes)),
		Perceptual: make(map[string]string, len(l.perceptual)),
	}
	for h := range l.hashes {
		out.Hashes = append(out.Hashes, h)
	}
	sort.Strings(out.Hashes)
	for sha, v := range l.perceptual {
		out.Perceptual[sha] = strconv.FormatUint(v, 16)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}

	l.logger.DebugWithFields("hash ledger flushed", map[string]interface{}{
		"path":   l.path,
		"hashes": len(out.Hashes),
	})
	return nil
}
