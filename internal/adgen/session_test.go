package adgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// editProvider answers each edit with "edit-N" and records the inline base
// image it was given.
func editProvider(provider *stubProvider) *[][]byte {
	bases := &[][]byte{}
	var mu sync.Mutex
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		mu.Lock()
		if len(parts) > 0 && parts[0].Inline != nil {
			*bases = append(*bases, parts[0].Inline.Data)
		}
		mu.Unlock()
		return okResult(fmt.Sprintf("edit-%d", call)), nil
	}
	return bases
}

func TestEditSessionHistoryWalk(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	bases := editProvider(provider)

	sess, err := studio.OpenSession(2)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	original := sess.Original()
	if string(original.Data) != "seed-lifestyle" {
		t.Fatalf("original = %q", original.Data)
	}

	// apply(p1): history [O, E1], live E1, slot E1.
	live, err := sess.Apply(context.Background(), "warmer lighting")
	if err != nil {
		t.Fatalf("apply p1: %v", err)
	}
	if string(live.Data) != "edit-1" {
		t.Fatalf("live after p1 = %q", live.Data)
	}
	if got := len(sess.History()); got != 2 {
		t.Fatalf("history length = %d, want 2", got)
	}
	slot, _ := studio.Result(2)
	if string(slot.Data) != "edit-1" {
		t.Fatalf("slot after p1 = %q", slot.Data)
	}

	// apply(p2): history [O, E1, E2]; the edit must start from E1.
	live, err = sess.Apply(context.Background(), "add a blue sky")
	if err != nil {
		t.Fatalf("apply p2: %v", err)
	}
	if string(live.Data) != "edit-2" {
		t.Fatalf("live after p2 = %q", live.Data)
	}
	if got := len(sess.History()); got != 3 {
		t.Fatalf("history length = %d, want 3", got)
	}
	if len(*bases) != 2 || !bytes.Equal((*bases)[1], []byte("edit-1")) {
		t.Fatalf("second edit must use the live value as its base, got %q", (*bases)[1])
	}

	// undo: history [O, E1], live E1, slot E1.
	live, err = sess.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if string(live.Data) != "edit-1" {
		t.Fatalf("live after undo = %q", live.Data)
	}
	slot, _ = studio.Result(2)
	if string(slot.Data) != "edit-1" {
		t.Fatalf("slot after undo = %q", slot.Data)
	}

	// revert: history [O], live O, slot O.
	live, err = sess.Revert()
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if string(live.Data) != "seed-lifestyle" {
		t.Fatalf("live after revert = %q", live.Data)
	}
	slot, _ = studio.Result(2)
	if string(slot.Data) != "seed-lifestyle" {
		t.Fatalf("slot after revert = %q", slot.Data)
	}

	// undo on [O] is a no-op.
	live, err = sess.Undo()
	if err != nil {
		t.Fatalf("undo on original: %v", err)
	}
	if string(live.Data) != "seed-lifestyle" || len(sess.History()) != 1 {
		t.Fatalf("undo on original must be a no-op")
	}
}

func TestEditSessionRevertIsIdempotent(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	editProvider(provider)

	sess, _ := studio.OpenSession(0)
	if _, err := sess.Apply(context.Background(), "brighter"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	first, err := sess.Revert()
	if err != nil {
		t.Fatalf("first revert: %v", err)
	}
	second, err := sess.Revert()
	if err != nil {
		t.Fatalf("second revert: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) || len(sess.History()) != 1 {
		t.Fatalf("double revert must equal single revert")
	}
	slot, _ := studio.Result(0)
	if !bytes.Equal(slot.Data, first.Data) {
		t.Fatalf("slot diverged from reverted value")
	}
}

func TestEditSessionApplyFailureLeavesStateUntouched(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		return nil, errors.New("edit failed")
	}

	sess, _ := studio.OpenSession(1)
	_, err := sess.Apply(context.Background(), "make it pop")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected classified failure, got %v", err)
	}
	if got := len(sess.History()); got != 1 {
		t.Fatalf("failed apply must not grow history, length = %d", got)
	}
	slot, _ := studio.Result(1)
	if string(slot.Data) != "seed-minimal" {
		t.Fatalf("failed apply must not touch the slot, got %q", slot.Data)
	}
}

func TestEditSessionRejectsEmptyPrompt(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		return okResult("x"), nil
	}

	sess, _ := studio.OpenSession(0)
	for _, prompt := range []string{"", "   ", "\n\t"} {
		if _, err := sess.Apply(context.Background(), prompt); !errors.Is(err, domain.ErrEmptyPrompt) {
			t.Fatalf("apply(%q) = %v, want ErrEmptyPrompt", prompt, err)
		}
	}
	if got := provider.callCount(); got != 0 {
		t.Fatalf("empty prompts must not reach the provider: calls = %d", got)
	}
}

func TestEditSessionCloseKeepsLiveValue(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	editProvider(provider)

	sess, _ := studio.OpenSession(2)
	if _, err := sess.Apply(context.Background(), "add sparkle"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	sess.Close()

	slot, _ := studio.Result(2)
	if string(slot.Data) != "edit-1" {
		t.Fatalf("close must not roll the slot back, got %q", slot.Data)
	}

	if _, err := sess.Apply(context.Background(), "again"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("apply after close = %v, want ErrSessionClosed", err)
	}
	if _, err := sess.Undo(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("undo after close = %v, want ErrSessionClosed", err)
	}
}

func TestEditUndoRevertExcludeRegeneration(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)
	editProvider(provider)

	sess, _ := studio.OpenSession(0)
	if _, err := sess.Apply(context.Background(), "first pass"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		once.Do(func() { close(entered) })
		<-release
		return okResult("regenerated"), nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := studio.Regenerate(context.Background(), 0)
		done <- err
	}()
	<-entered

	// Undo and revert write the shared slot, so they must be rejected while
	// the regeneration holds the gate, and the history must stay untouched.
	if _, err := sess.Undo(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("undo during regeneration = %v, want ErrBusy", err)
	}
	if _, err := sess.Revert(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("revert during regeneration = %v, want ErrBusy", err)
	}
	if got := len(sess.History()); got != 2 {
		t.Fatalf("rejected undo/revert must not shrink history, length = %d", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight regeneration failed: %v", err)
	}
	slot, _ := studio.Result(0)
	if string(slot.Data) != "regenerated" {
		t.Fatalf("slot 0 = %q, want %q", slot.Data, "regenerated")
	}

	// Once the gate is idle again the undo goes through.
	live, err := sess.Undo()
	if err != nil {
		t.Fatalf("undo after regeneration: %v", err)
	}
	if string(live.Data) != "seed-vibrant" {
		t.Fatalf("live after undo = %q", live.Data)
	}
	slot, _ = studio.Result(0)
	if string(slot.Data) != "seed-vibrant" {
		t.Fatalf("slot after undo = %q", slot.Data)
	}
}

func TestEditApplyExcludesRegeneration(t *testing.T) {
	provider := &stubProvider{}
	studio := newReadyStudio(t, provider)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	provider.fn = func(call int, parts []genai.Part) (*genai.ImageResult, error) {
		once.Do(func() { close(entered) })
		<-release
		return okResult("edited"), nil
	}

	sess, _ := studio.OpenSession(0)
	done := make(chan error, 1)
	go func() {
		_, err := sess.Apply(context.Background(), "slow edit")
		done <- err
	}()
	<-entered

	if _, err := studio.Regenerate(context.Background(), 1); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("regenerate during edit = %v, want ErrBusy", err)
	}
	if _, err := sess.Apply(context.Background(), "second edit"); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("overlapping apply = %v, want ErrBusy", err)
	}
	if got := provider.callCount(); got != 1 {
		t.Fatalf("rejected operations must not reach the provider: calls = %d", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight edit failed: %v", err)
	}
	slot, _ := studio.Result(0)
	if string(slot.Data) != "edited" {
		t.Fatalf("slot 0 = %q, want %q", slot.Data, "edited")
	}
}
