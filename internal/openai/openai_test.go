package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/cardscan/internal/providers"
)

func TestExtractText(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Acme"}}]}`))
	}))
	defer server.Close()

	o := New("test-key", server.URL)
	got, err := o.ExtractText(context.Background(), providers.Config{
		Model:    "gpt-4o",
		Prompt:   "Return the company name",
		Image:    []byte{0xff, 0xd8},
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Acme" {
		t.Errorf("expected Acme, got %q", got)
	}

	messages := captured["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expected text and image parts, got %d", len(content))
	}
	imageURL := content[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(imageURL, "data:image/jpeg;base64,") {
		t.Errorf("unexpected image url %q", imageURL)
	}
}

func TestExtractTextClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantQuota bool
		wantClass providers.ErrorClass
	}{
		{
			name:      "insufficient quota",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"code":"insufficient_quota"}}`,
			wantQuota: true,
		},
		{
			name:      "rate limit",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"code":"rate_limit_exceeded"}}`,
			wantClass: providers.ClassRateLimit,
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			body:      "oops",
			wantClass: providers.ClassTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New("k", server.URL).ExtractText(context.Background(), providers.Config{Model: "gpt-4o"})
			if err == nil {
				t.Fatal("expected error")
			}
			if providers.IsQuotaExceeded(err) != tt.wantQuota {
				t.Fatalf("quota = %v, expected %v (%v)", !tt.wantQuota, tt.wantQuota, err)
			}
			if tt.wantQuota {
				return
			}
			var remote *providers.RemoteError
			if !errors.As(err, &remote) || remote.Class != tt.wantClass {
				t.Errorf("expected class %s, got %v", tt.wantClass, err)
			}
		})
	}
}
