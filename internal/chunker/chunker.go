package chunker

import (
	"strings"
	"unicode/utf8"
)

// Config controls how document text is split.
type Config struct {
	ChunkSize int // target size of each chunk in characters
	Overlap   int // characters carried over between adjacent chunks
}

func DefaultConfig() Config {
	return Config{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// Split breaks document text into overlapping chunks, preferring paragraph
// and sentence boundaries over hard character cuts.
func Split(content string, cfg Config) []string {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	overlap := cfg.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	runes := []rune(strings.TrimSpace(content))
	if len(runes) == 0 {
		return []string{}
	}

	chunks := []string{}
	start := 0
	contentLen := len(runes)

	for start < contentLen {
		end := start + chunkSize
		if end > contentLen {
			end = contentLen
		}

		// Prefer a paragraph break, then a sentence break, then a line break
		if end < contentLen {
			window := string(runes[start:end])
			if idx := lastSeparator(window, "\n\n"); idx > chunkSize/2 {
				end = start + idx + 2
			} else if idx := lastSeparator(window, ". "); idx > chunkSize/2 {
				end = start + idx + 2
			} else if idx := lastSeparator(window, "\n"); idx > chunkSize/2 {
				end = start + idx + 1
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}

		if end == contentLen {
			break
		}

		// Boundary snapping can pull end close to start; the next window
		// must begin past the current one or the loop never finishes.
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastSeparator returns the rune offset of the last occurrence of sep in
// window, or -1. Separators are ASCII, so their rune and byte lengths match.
func lastSeparator(window, sep string) int {
	idx := strings.LastIndex(window, sep)
	if idx < 0 {
		return -1
	}
	return utf8.RuneCountInString(window[:idx])
}
