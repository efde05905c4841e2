// Package chunker splits document text into bounded, overlapping chunks so
// long documents fit within embedding model context limits.
package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxChunkSize = 1500
	DefaultOverlap      = 200

	// boundaryWindow is how far back from a window's end we look for a
	// sentence or line break before cutting mid-sentence.
	boundaryWindow = 100
)

// separators are tried in priority order; the first one present inside the
// boundary window wins, cutting at its last occurrence.
var separators = []string{". ", "! ", "? ", "\n\n", "\n"}

// ConfigError reports an invalid splitter configuration.
type ConfigError struct {
	MaxChunkSize int
	Overlap      int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunker: overlap %d must be smaller than max chunk size %d", e.Overlap, e.MaxChunkSize)
}

// Splitter produces deterministic overlapping chunks. Sizes are measured in
// runes so multi-byte text never splits inside a code point.
type Splitter struct {
	maxChunkSize int
	overlap      int
}

// New validates the chunk geometry up front; an overlap that is not strictly
// smaller than the chunk size can never make progress.
func New(maxChunkSize, overlap int) (*Splitter, error) {
	if maxChunkSize <= 0 || overlap < 0 || overlap >= maxChunkSize {
		return nil, &ConfigError{MaxChunkSize: maxChunkSize, Overlap: overlap}
	}
	return &Splitter{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

// MaxChunkSize returns the configured window size in runes.
func (s *Splitter) MaxChunkSize() int { return s.maxChunkSize }

// Overlap returns the configured overlap in runes.
func (s *Splitter) Overlap() int { return s.overlap }

// Split divides text into ordered non-empty chunks. Text at most one window
// long comes back as a single trimmed chunk; whitespace-only input yields
// none. Consecutive chunks share overlapping context, and non-final windows
// are cut at the latest sentence or line boundary found near their end.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)

	if n <= s.maxChunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + s.maxChunkSize
		final := end >= n
		if final {
			end = n
		} else {
			end = boundaryCut(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if final {
			break
		}
		next := end - s.overlap
		if next <= start {
			// A pathological boundary cut shrank the window below the
			// overlap; give up the overlap rather than stall.
			next = end
		}
		start = next
	}
	return chunks
}

// boundaryCut searches the last boundaryWindow runes of [start,end) for a
// separator and returns the position just after its last occurrence, or end
// unchanged when no separator lands inside the window.
func boundaryCut(runes []rune, start, end int) int {
	lo := end - boundaryWindow
	if lo < start {
		lo = start
	}
	region := string(runes[lo:end])
	for _, sep := range separators {
		idx := strings.LastIndex(region, sep)
		if idx < 0 {
			continue
		}
		cut := lo + len([]rune(region[:idx])) + len([]rune(sep))
		if cut > start {
			return cut
		}
		break
	}
	return end
}
