package nnff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// matchThreshold is the minimum name similarity for a usable model
	matchThreshold = 0.9
	// exactThreshold marks a match as exact rather than fuzzy
	exactThreshold = 0.99
)

// Store finds torque response models for a car in a model directory
type Store struct {
	dir string
}

// NewStore creates a store over a directory of <fingerprint>.json models
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Match describes a resolved model
type Match struct {
	Path       string
	Name       string
	Similarity float64
	Exact      bool
}

// FindModel resolves the best model for a car fingerprint and optional EPS
// firmware string. Firmware-qualified candidates are tried first since
// torque response varies across EPS revisions of the same platform. A nil
// match with nil error means no model scored above the threshold.
func (s *Store) FindModel(fingerprint, epsFirmware string) (*Match, error) {
	names, err := s.modelNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	if len(epsFirmware) > 3 {
		fw := strings.ReplaceAll(epsFirmware, `\`, "")
		if m := s.bestMatch(names, fingerprint+" "+fw, fingerprint); m != nil {
			return m, nil
		}
	}
	return s.bestMatch(names, fingerprint, fingerprint), nil
}

// ListModels returns the model names in the store, sorted by the directory
// listing order
func (s *Store) ListModels() ([]string, error) {
	return s.modelNames()
}

func (s *Store) modelNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

// bestMatch scans the names for the highest similarity to the candidate. The
// winner only counts when it clears the threshold and contains the
// fingerprint.
func (s *Store) bestMatch(names []string, candidate, fingerprint string) *Match {
	best := ""
	bestScore := -1.0
	for _, n := range names {
		if score := Similarity(n, candidate); score > bestScore {
			bestScore = score
			best = n
		}
	}
	if best == "" || !strings.Contains(best, fingerprint) || bestScore < matchThreshold {
		return nil
	}
	return &Match{
		Path:       filepath.Join(s.dir, best+".json"),
		Name:       best,
		Similarity: bestScore,
		Exact:      bestScore >= exactThreshold,
	}
}

// Similarity returns the Ratcliff/Obershelp ratio between two strings:
// twice the matched character count over the total length, in [0, 1]
func Similarity(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1.0
	}
	return 2.0 * float64(matchedChars([]byte(a), []byte(b))) / float64(len(a)+len(b))
}

// matchedChars counts the longest common substring and recurses into the
// unmatched pieces on either side of it
func matchedChars(a, b []byte) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size + matchedChars(a[:ai], b[:bi]) + matchedChars(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b []byte) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
		for j := range cur {
			cur[j] = 0
		}
	}
	return ai, bi, size
}
