package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parastudy/parastudy-backend/internal/logger"
)

func TestStripJSONFence(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no_fence", input: `{"a":1}`, want: `{"a":1}`},
		{name: "plain_fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "json_fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "whitespace", input: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripJSONFence(tc.input); got != tc.want {
				t.Fatalf("StripJSONFence(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: ErrQuotaExceeded, want: true},
		{name: "wrapped_sentinel", err: fmt.Errorf("call failed: %w", ErrQuotaExceeded), want: true},
		{name: "resource_exhausted_text", err: errors.New("gemini error RESOURCE_EXHAUSTED: too many requests"), want: true},
		{name: "quota_text", err: errors.New("Quota exceeded for model"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsQuotaError(tc.err); got != tc.want {
				t.Fatalf("IsQuotaError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestBuildBodyRolesAndAttachments(t *testing.T) {
	c := &client{model: "gemini-2.0-flash"}
	body := c.buildBody(Request{
		SystemInstruction: "tu es un tuteur",
		History: []Turn{
			{Role: "user", Content: "salut"},
			{Role: "model", Content: "bonjour"},
			{Role: "weird", Content: "normalized"},
		},
		Prompt:      "question",
		Attachments: []Attachment{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	})
	if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "tu es un tuteur" {
		t.Fatal("system instruction not carried")
	}
	if len(body.Contents) != 4 {
		t.Fatalf("contents = %d, want 3 history turns + 1 prompt", len(body.Contents))
	}
	if body.Contents[1].Role != "model" {
		t.Fatalf("model turn role = %q", body.Contents[1].Role)
	}
	if body.Contents[2].Role != "user" {
		t.Fatalf("unknown role normalized to %q, want user", body.Contents[2].Role)
	}
	final := body.Contents[3]
	if len(final.Parts) != 2 || final.Parts[1].InlineData == nil {
		t.Fatal("attachment not inlined on the final turn")
	}
	if final.Parts[1].InlineData.MIMEType != "image/png" {
		t.Fatalf("attachment mime = %q", final.Parts[1].InlineData.MIMEType)
	}
}

func newTestClient(t *testing.T, url string, maxRetries int) Client {
	t.Helper()
	c, err := NewClient(logger.NewNop(), Options{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: maxRetries,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestGenerateTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Bonjour "},{"text":"!"}]}}]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL, 0).GenerateText(context.Background(), Request{Prompt: "salut"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "Bonjour !" {
		t.Fatalf("text = %q", got)
	}
}

func TestGenerateTextQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).GenerateText(context.Background(), Request{Prompt: "q"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestGenerateTextRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL, 2).GenerateText(context.Background(), Request{Prompt: "q"})
	if err != nil {
		t.Fatalf("GenerateText after retry: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("text = %q after %d calls", got, calls)
	}
}

func TestGenerateJSONMalformedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"not json at all"}]}}]}`)
	}))
	defer srv.Close()

	var out map[string]any
	err := newTestClient(t, srv.URL, 0).GenerateJSON(context.Background(), Request{Prompt: "q"}, &out)
	if err == nil {
		t.Fatal("malformed JSON output did not fail")
	}
}

func TestGenerateJSONFencedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"`+"```json\\n{\\\"topic\\\":\\\"abc\\\"}\\n```"+`"}]}}]}`)
	}))
	defer srv.Close()

	var out struct {
		Topic string `json:"topic"`
	}
	if err := newTestClient(t, srv.URL, 0).GenerateJSON(context.Background(), Request{Prompt: "q"}, &out); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out.Topic != "abc" {
		t.Fatalf("topic = %q", out.Topic)
	}
}
