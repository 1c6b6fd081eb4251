package adgen

import (
	"errors"
	"strings"
	"testing"

	"server/internal/providers/genai"
)

func TestClassifyQuotaFromStructuredError(t *testing.T) {
	c := NewClassifier(testLogger())
	err := &genai.APIError{HTTPStatus: 429, Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}

	failure := c.Classify(err, "generate[vibrant]")

	if failure.Category != CategoryQuota {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryQuota)
	}
	if !strings.Contains(failure.Message, "rate-limits") {
		t.Fatalf("quota message missing rate-limit reference: %s", failure.Message)
	}
}

func TestClassifyQuotaFromRawJSONPayload(t *testing.T) {
	c := NewClassifier(testLogger())
	err := errors.New(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"x"}}`)

	failure := c.Classify(err, "generate[vibrant]")

	if failure.Category != CategoryQuota {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryQuota)
	}
	if !strings.Contains(failure.Message, "rate-limits") {
		t.Fatalf("quota message missing rate-limit reference: %s", failure.Message)
	}
}

func TestClassifyPolicyFromKeyword(t *testing.T) {
	c := NewClassifier(testLogger())

	for _, text := range []string{
		"request rejected by SAFETY system",
		"image violates content Policy",
	} {
		failure := c.Classify(errors.New(text), "edit[slot 1]")
		if failure.Category != CategoryPolicy {
			t.Fatalf("category for %q = %s, want %s", text, failure.Category, CategoryPolicy)
		}
		if failure.Message != policyMessage {
			t.Fatalf("unexpected policy message: %s", failure.Message)
		}
	}
}

func TestClassifyPolicyFromStructuredMessage(t *testing.T) {
	c := NewClassifier(testLogger())
	err := &genai.APIError{HTTPStatus: 400, Code: 400, Status: "INVALID_ARGUMENT", Message: "Blocked by safety filters"}

	failure := c.Classify(err, "generate[minimal]")

	if failure.Category != CategoryPolicy {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryPolicy)
	}
}

func TestClassifyProviderError(t *testing.T) {
	c := NewClassifier(testLogger())
	err := &genai.APIError{HTTPStatus: 500, Code: 500, Status: "INTERNAL", Message: "model overloaded"}

	failure := c.Classify(err, "generate[lifestyle]")

	if failure.Category != CategoryProvider {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryProvider)
	}
	if !strings.Contains(failure.Message, "INTERNAL") || !strings.Contains(failure.Message, "model overloaded") {
		t.Fatalf("provider message missing status or text: %s", failure.Message)
	}
}

func TestClassifyTransportKeepsRawText(t *testing.T) {
	c := NewClassifier(testLogger())
	raw := "connection reset by peer"

	failure := c.Classify(errors.New(raw), "generate[vibrant]")

	if failure.Category != CategoryTransport {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryTransport)
	}
	if !strings.Contains(failure.Message, raw) {
		t.Fatalf("transport message must include raw text verbatim: %s", failure.Message)
	}
}

func TestClassifyMalformedEnvelopeIsUnknown(t *testing.T) {
	c := NewClassifier(testLogger())

	failure := c.Classify(errors.New(`{"error":{"status":`), "generate[vibrant]")

	if failure.Category != CategoryUnknown {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryUnknown)
	}
	if failure.Message != unknownMessage {
		t.Fatalf("unexpected unknown message: %s", failure.Message)
	}
}

func TestClassifyNilErrorIsUnknown(t *testing.T) {
	c := NewClassifier(testLogger())

	failure := c.Classify(nil, "generate[vibrant]")

	if failure.Category != CategoryUnknown {
		t.Fatalf("category = %s, want %s", failure.Category, CategoryUnknown)
	}
}

func TestFailureUnwrapsCause(t *testing.T) {
	c := NewClassifier(testLogger())
	cause := &genai.APIError{HTTPStatus: 500, Code: 500, Status: "INTERNAL", Message: "boom"}

	failure := c.Classify(cause, "generate[vibrant]")

	var apiErr *genai.APIError
	if !errors.As(failure, &apiErr) {
		t.Fatalf("failure should unwrap to the original API error")
	}
}
