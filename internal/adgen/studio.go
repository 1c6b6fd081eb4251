package adgen

import (
	"context"
	"fmt"
	"sync"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/genai"
)

// opState enumerates the mutating capabilities of the studio. Exactly one
// may be in flight at a time; the gate below is the combined busy
// projection over all of them.
type opState int

const (
	stateIdle opState = iota
	stateGenerating
	stateRegenerating
	stateEditing
)

// gate serializes mutating operations. A conflicting begin is rejected, not
// queued; in-flight operations are never cancelled.
type gate struct {
	mu    sync.Mutex
	state opState
	slot  int
}

func (g *gate) begin(next opState, slot int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateIdle {
		return domain.ErrBusy
	}
	g.state = next
	g.slot = slot
	return nil
}

func (g *gate) end() {
	g.mu.Lock()
	g.state = stateIdle
	g.slot = -1
	g.mu.Unlock()
}

// Studio owns the ordered result set and coordinates every operation that
// mutates it: the initial batch generation, single-slot regeneration, and
// edit-session applies. The result slice is the only shared mutable state;
// it has one logical writer at a time, enforced by the gate.
type Studio struct {
	provider   Provider
	invoker    *Invoker
	batch      *BatchGenerator
	directions []domain.CreativeDirection
	logger     infra.Logger

	gate gate

	mu      sync.RWMutex
	results []domain.AdResult
	lastReq Request
}

func NewStudio(provider Provider, directions []domain.CreativeDirection, logger infra.Logger) *Studio {
	invoker := NewInvoker(logger)
	return &Studio{
		provider:   provider,
		invoker:    invoker,
		batch:      NewBatchGenerator(provider, invoker, directions),
		directions: directions,
		logger:     logger,
	}
}

// Directions returns the fixed ordered direction set.
func (s *Studio) Directions() []domain.CreativeDirection {
	out := make([]domain.CreativeDirection, len(s.directions))
	copy(out, s.directions)
	return out
}

// Results returns a snapshot of the current result set, or nil when no batch
// has completed yet.
func (s *Studio) Results() []domain.AdResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		return nil
	}
	out := make([]domain.AdResult, len(s.results))
	copy(out, s.results)
	return out
}

// Result returns the current value of one slot.
func (s *Studio) Result(index int) (domain.AdResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		return domain.AdResult{}, domain.ErrNoResults
	}
	if index < 0 || index >= len(s.results) {
		return domain.AdResult{}, domain.ErrInvalidSlot
	}
	return s.results[index], nil
}

// Generate runs the full batch and, on success, replaces the whole result
// set. The set is never partially visible: either all N slots are replaced
// or none are. A generation already in progress (of any kind) rejects the
// call with ErrBusy.
func (s *Studio) Generate(ctx context.Context, req Request) ([]domain.AdResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.begin(stateGenerating, -1); err != nil {
		return nil, err
	}
	defer s.gate.end()

	results, err := s.batch.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.results = results
	s.lastReq = req
	s.mu.Unlock()

	s.logger.Info().
		Int("count", len(results)).
		Msg("adgen: batch generation complete")

	out := make([]domain.AdResult, len(results))
	copy(out, results)
	return out, nil
}

// Regenerate re-runs the provider call for a single slot using the stored
// batch parameters and that slot's creative direction. At most one
// regeneration may be in flight across all slots; while one runs, requests
// for any index are rejected without starting a provider call. On failure
// the slot keeps its previous value.
func (s *Studio) Regenerate(ctx context.Context, index int) (domain.AdResult, error) {
	s.mu.RLock()
	populated := s.results != nil
	req := s.lastReq
	s.mu.RUnlock()

	if !populated {
		return domain.AdResult{}, domain.ErrNoResults
	}
	if index < 0 || index >= len(s.directions) {
		return domain.AdResult{}, domain.ErrInvalidSlot
	}

	if err := s.gate.begin(stateRegenerating, index); err != nil {
		return domain.AdResult{}, err
	}
	defer s.gate.end()

	dir := s.directions[index]
	parts := BuildGenerationParts(req, dir)
	res, err := s.invoker.Do(ctx, fmt.Sprintf("regenerate[%s]", dir.ID), func(ctx context.Context) (*genai.ImageResult, error) {
		return s.provider.GenerateImage(ctx, parts)
	})
	if err != nil {
		return domain.AdResult{}, err
	}

	result := domain.AdResult{Data: res.Data, MIME: res.MIME}
	s.setResult(index, result)

	s.logger.Info().
		Int("slot", index).
		Str("direction", dir.ID).
		Msg("adgen: slot regenerated")

	return result, nil
}

// OpenSession snapshots the current value of one slot and returns a fresh
// edit session over it. The snapshot becomes both the session's original and
// its sole history entry.
func (s *Studio) OpenSession(index int) (*EditSession, error) {
	original, err := s.Result(index)
	if err != nil {
		return nil, err
	}
	return &EditSession{
		studio:  s,
		index:   index,
		history: []domain.AdResult{original},
	}, nil
}

func (s *Studio) setResult(index int, result domain.AdResult) {
	s.mu.Lock()
	s.results[index] = result
	s.mu.Unlock()
}
