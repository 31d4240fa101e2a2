package chunker

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split("", DefaultConfig()))
	assert.Empty(t, Split("   \n\t  ", DefaultConfig()))
}

func TestSplitShortContent(t *testing.T) {
	chunks := Split("a short statute excerpt", DefaultConfig())
	assert.Equal(t, []string{"a short statute excerpt"}, chunks)
}

func TestSplitRespectsChunkSize(t *testing.T) {
	content := strings.Repeat("word ", 1000)
	cfg := Config{ChunkSize: 200, Overlap: 50}

	chunks := Split(content, cfg)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
		assert.NotEmpty(t, c)
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("a", 150)
	para2 := strings.Repeat("b", 150)
	content := para1 + "\n\n" + para2

	chunks := Split(content, Config{ChunkSize: 200, Overlap: 0})

	assert.Equal(t, para1, chunks[0])
}

func TestSplitOverlapCarriesText(t *testing.T) {
	content := strings.Repeat("x", 300)
	chunks := Split(content, Config{ChunkSize: 200, Overlap: 100})

	assert.GreaterOrEqual(t, len(chunks), 2)
	// the second chunk starts inside the first
	assert.Equal(t, strings.Repeat("x", 200), chunks[0])
}

func TestSplitTerminates(t *testing.T) {
	// overlap close to chunk size must still make progress
	content := strings.Repeat("y", 5000)
	chunks := Split(content, Config{ChunkSize: 100, Overlap: 99})
	assert.NotEmpty(t, chunks)
}

func TestSplitTerminatesWithSnappedBoundaries(t *testing.T) {
	// Recurring sentence breaks past the window midpoint snap end close
	// to start; with a large overlap the next start would otherwise
	// land before the previous one.
	content := strings.Repeat(strings.Repeat("a", 58)+". ", 100)

	done := make(chan []string, 1)
	go func() {
		done <- Split(content, Config{ChunkSize: 100, Overlap: 99})
	}()

	select {
	case chunks := <-done:
		assert.NotEmpty(t, chunks)
		joined := strings.Join(chunks, " ")
		assert.Contains(t, joined, strings.Repeat("a", 58))
	case <-time.After(5 * time.Second):
		t.Fatal("Split did not finish")
	}
}

func TestSplitKeepsRunesIntact(t *testing.T) {
	// Section marks are multi-byte; cuts must land between runes, and
	// chunk size counts characters rather than bytes.
	content := strings.TrimSpace(strings.Repeat("§ 12 ", 100))
	chunks := Split(content, Config{ChunkSize: 50, Overlap: 10})

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
	}
}
