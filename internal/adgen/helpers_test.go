package adgen

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// stubProvider routes every call through fn and counts invocations.
type stubProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, parts []genai.Part) (*genai.ImageResult, error)
}

func (s *stubProvider) GenerateImage(ctx context.Context, parts []genai.Part) (*genai.ImageResult, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	fn := s.fn
	s.mu.Unlock()
	return fn(call, parts)
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func okResult(tag string) *genai.ImageResult {
	return &genai.ImageResult{Data: []byte(tag), MIME: "image/png"}
}

// partsText flattens the text parts of a provider payload for matching.
func partsText(parts []genai.Part) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// directionOf reports which creative direction produced the payload.
func directionOf(t *testing.T, parts []genai.Part, directions []domain.CreativeDirection) domain.CreativeDirection {
	t.Helper()
	text := partsText(parts)
	for _, dir := range directions {
		if strings.Contains(text, dir.Prompt) {
			return dir
		}
	}
	t.Fatalf("payload matches no direction: %s", text)
	return domain.CreativeDirection{}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testRequest() Request {
	return Request{
		Assets: []domain.ImageAsset{{Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"}},
		Copy: domain.AdCopy{
			Headline:    "Fresh Roast",
			Description: "Small-batch coffee, delivered weekly",
			CTA:         "order now",
		},
		AspectRatio: "1:1",
		Locale:      "en",
	}
}

// newReadyStudio generates an initial batch so slot operations have results
// to work with. Slot i holds data "seed-<direction id>".
func newReadyStudio(t *testing.T, provider *stubProvider) *Studio {
	t.Helper()
	directions := DefaultDirections()
	seedFn := provider.fn
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		dir := directionOf(t, parts, directions)
		return okResult("seed-" + dir.ID), nil
	}
	studio := NewStudio(provider, directions, testLogger())
	if _, err := studio.Generate(context.Background(), testRequest()); err != nil {
		t.Fatalf("initial generate failed: %v", err)
	}
	provider.mu.Lock()
	provider.calls = 0
	provider.fn = seedFn
	provider.mu.Unlock()
	return studio
}
