package collection

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

var seqFilePattern = regexp.MustCompile(`^(\d{3,})\.(jpg|jpeg|png|webp)$`)

// sequencer hands out per-category sequence numbers. Each category's
// counter is seeded once from a directory scan and then only ever
// incremented under the lock, so concurrent writers can never be handed
// the same number.
type sequencer struct {
	mu       sync.Mutex
	root     string // wallpapers directory
	counters map[string]int
}

func newSequencer(root string) *sequencer {
	return &sequencer{
		root:     root,
		counters: make(map[string]int),
	}
}

// next reserves and returns the next sequence number for a category.
func (s *sequencer) next(category string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seeded := s.counters[category]; !seeded {
		highest, err := s.scanHighest(category)
		if err != nil {
			return 0, err
		}
		s.counters[category] = highest
	}

	s.counters[category]++
	return s.counters[category], nil
}

// scanHighest finds the highest existing sequence number on disk.
func (s *sequencer) scanHighest(category string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, category))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := seqFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}
