package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"masslaw-api/pkg/llm"
)

type stubChat struct {
	response string
	err      error
	calls    int
}

func (s *stubChat) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestIsInDomainYes(t *testing.T) {
	chat := &stubChat{response: "YES"}
	classifier := NewClassifier(chat)

	assert.True(t, classifier.IsInDomain(context.Background(), "What are the Miranda rights requirements in Massachusetts?"))
	assert.Equal(t, 1, chat.calls)
}

func TestIsInDomainNormalizesWhitespaceAndCase(t *testing.T) {
	classifier := NewClassifier(&stubChat{response: "  yes\n"})

	assert.True(t, classifier.IsInDomain(context.Background(), "What is the penalty for OUI?"))
}

func TestIsInDomainNo(t *testing.T) {
	classifier := NewClassifier(&stubChat{response: "NO"})

	assert.False(t, classifier.IsInDomain(context.Background(), "What is a good pasta recipe?"))
}

func TestIsInDomainRejectsAnythingElse(t *testing.T) {
	for _, response := range []string{"", "MAYBE", "YES, because the question concerns bail", "Y", "yes and no"} {
		classifier := NewClassifier(&stubChat{response: response})
		assert.False(t, classifier.IsInDomain(context.Background(), "question"), "response %q must be rejected", response)
	}
}

func TestIsInDomainFailsClosedOnError(t *testing.T) {
	classifier := NewClassifier(&stubChat{err: errors.New("model unavailable")})

	assert.False(t, classifier.IsInDomain(context.Background(), "What are the Miranda rights requirements?"))
}
