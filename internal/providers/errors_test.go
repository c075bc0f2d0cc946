package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestGeminiClassifier(t *testing.T) {
	classify := NewClassifier(GeminiMarkers)

	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{
			name: "daily quota payload",
			err: &googleapi.Error{
				Code: 429,
				Body: `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.","status":"RESOURCE_EXHAUSTED"}}`,
			},
			expected: ClassQuota,
		},
		{
			name:     "quota marker in message only",
			err:      errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota). RESOURCE_EXHAUSTED"),
			expected: ClassQuota,
		},
		{
			name:     "wrapped quota error",
			err:      fmt.Errorf("failed to generate content: %w", &googleapi.Error{Code: 429, Body: `"status": "RESOURCE_EXHAUSTED"`}),
			expected: ClassQuota,
		},
		{
			name:     "plain 429 text",
			err:      errors.New("googleapi: Error 429: Too Many Requests"),
			expected: ClassRateLimit,
		},
		{
			name:     "429 status without marker",
			err:      &googleapi.Error{Code: 429, Message: "slow down"},
			expected: ClassRateLimit,
		},
		{
			name:     "server overloaded",
			err:      &googleapi.Error{Code: 503, Message: "The model is overloaded. Please try again later."},
			expected: ClassTransient,
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("failed to generate content: %w", context.DeadlineExceeded),
			expected: ClassTransient,
		},
		{
			name:     "bad request",
			err:      &googleapi.Error{Code: 400, Message: "Unsupported MIME type: image/heic"},
			expected: ClassUnknown,
		},
		{
			name:     "unrecognized",
			err:      errors.New("boom"),
			expected: ClassUnknown,
		},
		{
			name:     "nil",
			err:      nil,
			expected: ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestOpenAIClassifier(t *testing.T) {
	classify := NewClassifier(OpenAIMarkers)

	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{
			name: "insufficient quota",
			err: &StatusError{Provider: "openai", Code: 429,
				Body: `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`},
			expected: ClassQuota,
		},
		{
			name: "rate limit",
			err: &StatusError{Provider: "openai", Code: 429,
				Body: `{"error":{"message":"Rate limit reached for gpt-4o","code":"rate_limit_exceeded"}}`},
			expected: ClassRateLimit,
		},
		{
			name:     "server error",
			err:      &StatusError{Provider: "openai", Code: 502, Body: "bad gateway"},
			expected: ClassTransient,
		},
		{
			name:     "auth error",
			err:      &StatusError{Provider: "openai", Code: 401, Body: "invalid api key"},
			expected: ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	classify := NewClassifier(GeminiMarkers)

	quota := Classify("gemini-2.0-flash", errors.New("RESOURCE_EXHAUSTED"), classify)
	if !IsQuotaExceeded(quota) {
		t.Fatalf("expected quota error, got %v", quota)
	}
	var q *QuotaExceededError
	if errors.As(quota, &q) && q.Model != "gemini-2.0-flash" {
		t.Errorf("expected model to be recorded, got %q", q.Model)
	}

	rate := Classify("gemini-2.0-flash", errors.New("googleapi: Error 429: Too Many Requests"), classify)
	if IsQuotaExceeded(rate) {
		t.Fatal("rate limit must not be reported as quota")
	}
	var remote *RemoteError
	if !errors.As(rate, &remote) || remote.Class != ClassRateLimit {
		t.Errorf("expected rate limit remote error, got %v", rate)
	}

	if Classify("m", nil, classify) != nil {
		t.Error("expected nil for nil error")
	}
}
