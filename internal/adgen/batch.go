package adgen

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// Provider is the single external call the engine orchestrates. The Gemini
// client satisfies it directly; tests substitute stubs.
type Provider interface {
	GenerateImage(ctx context.Context, parts []genai.Part) (*genai.ImageResult, error)
}

// BatchGenerator fans out one retried provider call per creative direction
// and joins the results back into direction order. It owns no retry logic of
// its own, only the fan-out, the all-or-nothing join, and the ordering.
type BatchGenerator struct {
	provider   Provider
	invoker    *Invoker
	directions []domain.CreativeDirection
}

func NewBatchGenerator(provider Provider, invoker *Invoker, directions []domain.CreativeDirection) *BatchGenerator {
	return &BatchGenerator{
		provider:   provider,
		invoker:    invoker,
		directions: directions,
	}
}

// Generate starts all direction calls before awaiting any of them and waits
// for every call to settle. If any call fails the whole batch fails with the
// first-observed failure and completed sibling results are discarded;
// in-flight siblings are left to finish, not cancelled. On success the
// returned slice has one result per direction, in direction order,
// regardless of completion order.
func (b *BatchGenerator) Generate(ctx context.Context, req Request) ([]domain.AdResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := make([]domain.AdResult, len(b.directions))
	var g errgroup.Group
	for i, dir := range b.directions {
		i, dir := i, dir
		g.Go(func() error {
			parts := BuildGenerationParts(req, dir)
			res, err := b.invoker.Do(ctx, fmt.Sprintf("generate[%s]", dir.ID), func(ctx context.Context) (*genai.ImageResult, error) {
				return b.provider.GenerateImage(ctx, parts)
			})
			if err != nil {
				return err
			}
			results[i] = domain.AdResult{Data: res.Data, MIME: res.MIME}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
