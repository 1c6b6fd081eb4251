package adgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"server/internal/infra"
	"server/internal/providers/genai"
)

// Category identifies the user-facing failure class of a terminal provider
// error. Categories exist for future branching; today only the message is
// surfaced to callers.
type Category string

const (
	CategoryQuota     Category = "quota_exceeded"
	CategoryPolicy    Category = "policy_violation"
	CategoryProvider  Category = "provider_error"
	CategoryTransport Category = "transport_error"
	CategoryUnknown   Category = "unknown"
)

// Failure is the single classified error surfaced once retries are exhausted.
// Exactly one Failure is produced per exhausted operation; no other error
// shape crosses the engine boundary for provider-originated problems.
type Failure struct {
	Category Category
	Message  string
	cause    error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.cause }

const (
	quotaMessage = "Image generation quota exceeded. Wait a moment and try again, or review your plan and billing. See https://ai.google.dev/gemini-api/docs/rate-limits for details."

	policyMessage = "The request was blocked by the provider's content policy. Adjust the product photos or ad copy and try again."

	unknownMessage = "Ad generation failed for an unknown reason. Please try again."
)

var policyKeywords = []string{"safety", "policy", "blocked", "prohibited"}

// Classifier turns a raw provider failure into exactly one Failure. It is
// invoked only after retries are exhausted and never produces a success
// value. The label is diagnostic only and never reaches the user.
type Classifier struct {
	logger infra.Logger
}

func NewClassifier(logger infra.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify maps err onto the failure taxonomy. Structured provider errors
// are matched by variant; unstructured text degrades gracefully through a
// JSON probe, a policy keyword scan, and finally the raw-text transport
// category.
func (c *Classifier) Classify(err error, label string) *Failure {
	failure := c.classify(err)
	c.logger.Debug().
		Str("op", label).
		Str("category", string(failure.Category)).
		Msg("adgen: classified provider failure")
	return failure
}

func (c *Classifier) classify(err error) *Failure {
	if err == nil {
		return &Failure{Category: CategoryUnknown, Message: unknownMessage}
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyEnvelope(err, apiErr.Code, apiErr.Status, apiErr.Message)
	}

	text := strings.TrimSpace(err.Error())

	if probe, ok := probeErrorEnvelope(text); ok {
		if probe == nil {
			// Looked structured but would not parse.
			return &Failure{Category: CategoryUnknown, Message: unknownMessage, cause: err}
		}
		return classifyEnvelope(err, probe.Error.Code, probe.Error.Status, probe.Error.Message)
	}

	if containsPolicyKeyword(text) {
		return &Failure{Category: CategoryPolicy, Message: policyMessage, cause: err}
	}

	return &Failure{
		Category: CategoryTransport,
		Message:  fmt.Sprintf("Unexpected response from the image provider: %s", text),
		cause:    err,
	}
}

func classifyEnvelope(cause error, code int, status, message string) *Failure {
	if status == "RESOURCE_EXHAUSTED" || code == 429 {
		return &Failure{Category: CategoryQuota, Message: quotaMessage, cause: cause}
	}
	if containsPolicyKeyword(message) {
		return &Failure{Category: CategoryPolicy, Message: policyMessage, cause: cause}
	}
	ref := status
	if ref == "" {
		ref = fmt.Sprintf("%d", code)
	}
	return &Failure{
		Category: CategoryProvider,
		Message:  fmt.Sprintf("The image provider returned an error (%s): %s", ref, message),
		cause:    cause,
	}
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// probeErrorEnvelope attempts to read a Gemini-style error envelope out of
// free-form failure text. The second return distinguishes "not structured at
// all" from "structured but malformed".
func probeErrorEnvelope(text string) (*errorEnvelope, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 || !strings.Contains(text, `"error"`) {
		return nil, false
	}
	var env errorEnvelope
	if err := json.Unmarshal([]byte(text[start:]), &env); err != nil {
		return nil, true
	}
	if env.Error.Status == "" && env.Error.Message == "" && env.Error.Code == 0 {
		return nil, true
	}
	return &env, true
}

func containsPolicyKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range policyKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
