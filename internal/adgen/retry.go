package adgen

import (
	"context"

	"server/internal/infra"
	"server/internal/providers/genai"
)

// MaxAttempts bounds how many times a single provider call is tried before
// the last failure is classified and surfaced.
const MaxAttempts = 3

// Invoker wraps one provider call with bounded sequential retry. Attempts
// never overlap and there is no backoff between them. All failures are
// retried uniformly, including ones a stricter design would treat as
// non-transient; classification happens only at exhaustion.
type Invoker struct {
	classifier *Classifier
	logger     infra.Logger
}

func NewInvoker(logger infra.Logger) *Invoker {
	return &Invoker{
		classifier: NewClassifier(logger),
		logger:     logger,
	}
}

// Do runs op up to MaxAttempts times. The first success wins and ends the
// loop immediately. Intermediate failures are logged for diagnostics only;
// after the final attempt the last error is classified and returned as the
// sole surfaced failure.
func (iv *Invoker) Do(ctx context.Context, label string, op func(context.Context) (*genai.ImageResult, error)) (*genai.ImageResult, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				iv.logger.Info().
					Str("op", label).
					Int("attempt", attempt).
					Msg("adgen: provider call recovered after retry")
			}
			return result, nil
		}
		lastErr = err
		iv.logger.Warn().
			Err(err).
			Str("op", label).
			Int("attempt", attempt).
			Int("max_attempts", MaxAttempts).
			Msg("adgen: provider call failed")
	}
	return nil, iv.classifier.Classify(lastErr, label)
}
