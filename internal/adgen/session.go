package adgen

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// EditSession tracks a linear chain of provider-applied edits on one slot.
// The history is an append-only version log: entry 0 is always the snapshot
// taken when the session opened, and the live value is always the last
// entry. Undo pops the last entry, revert truncates back to the original;
// both write the resulting live value through to the shared slot. Closing
// the session discards only the session itself.
type EditSession struct {
	studio *Studio
	index  int

	mu      sync.Mutex
	closed  bool
	history []domain.AdResult
}

// Index returns the slot this session edits.
func (s *EditSession) Index() int { return s.index }

// Original returns the slot value captured when the session opened.
func (s *EditSession) Original() domain.AdResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[0]
}

// Live returns the current value of the session, history's last entry.
func (s *EditSession) Live() domain.AdResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[len(s.history)-1]
}

// History returns a snapshot of the version log.
func (s *EditSession) History() []domain.AdResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AdResult, len(s.history))
	copy(out, s.history)
	return out
}

// Apply runs one provider edit over the live value. A successful edit is
// appended to the history and written into the shared slot immediately; a
// failed edit leaves both untouched. Only one edit may be in flight, and an
// edit excludes every other mutating operation while it runs.
func (s *EditSession) Apply(ctx context.Context, prompt string) (domain.AdResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.AdResult{}, domain.ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.AdResult{}, domain.ErrSessionClosed
	}
	base := s.history[len(s.history)-1]
	s.mu.Unlock()

	if err := s.studio.gate.begin(stateEditing, s.index); err != nil {
		return domain.AdResult{}, err
	}
	defer s.studio.gate.end()

	parts := BuildEditParts(base, prompt)
	res, err := s.studio.invoker.Do(ctx, fmt.Sprintf("edit[slot %d]", s.index), func(ctx context.Context) (*genai.ImageResult, error) {
		return s.studio.provider.GenerateImage(ctx, parts)
	})
	if err != nil {
		return domain.AdResult{}, err
	}

	edited := domain.AdResult{Data: res.Data, MIME: res.MIME}

	s.mu.Lock()
	s.history = append(s.history, edited)
	s.mu.Unlock()
	s.studio.setResult(s.index, edited)

	return edited, nil
}

// Undo removes the most recent edit and restores the previous version in the
// shared slot. With no edits to remove it is a no-op. The slot write passes
// through the studio gate like every other mutation, so an undo during an
// in-flight generation is rejected with ErrBusy.
func (s *EditSession) Undo() (domain.AdResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.AdResult{}, domain.ErrSessionClosed
	}
	if len(s.history) <= 1 {
		return s.history[0], nil
	}
	if err := s.studio.gate.begin(stateEditing, s.index); err != nil {
		return domain.AdResult{}, err
	}
	s.history = s.history[:len(s.history)-1]
	live := s.history[len(s.history)-1]
	s.studio.setResult(s.index, live)
	s.studio.gate.end()
	return live, nil
}

// Revert truncates the history back to the original snapshot and restores it
// in the shared slot, holding the studio gate for the write. Reverting an
// unedited session is a no-op, and calling Revert twice has the same effect
// as calling it once.
func (s *EditSession) Revert() (domain.AdResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.AdResult{}, domain.ErrSessionClosed
	}
	original := s.history[0]
	if len(s.history) <= 1 {
		return original, nil
	}
	if err := s.studio.gate.begin(stateEditing, s.index); err != nil {
		return domain.AdResult{}, err
	}
	s.history = s.history[:1]
	s.studio.setResult(s.index, original)
	s.studio.gate.end()
	return original, nil
}

// Close discards the session. The shared slot keeps whatever value is live;
// closing never rolls the result set back. Close is idempotent.
func (s *EditSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
