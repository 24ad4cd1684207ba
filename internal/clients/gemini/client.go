// Package gemini is a thin client for the generative-language API. It
// mirrors the API's generateContent surface only as far as the study
// features need it: text generation with history and attachments, and
// JSON generation parsed defensively into caller-supplied shapes.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/parastudy/parastudy-backend/internal/logger"
)

// ErrQuotaExceeded is returned when the API refuses the call for quota
// or rate-limit reasons. Handlers surface it as its own user-visible
// condition instead of a generic generation failure.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// Attachment is a binary part forwarded inline with the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Turn is one prior exchange in a conversation. Role is "user" or
// "model".
type Turn struct {
	Role    string
	Content string
}

// Request carries everything one generation call needs.
type Request struct {
	SystemInstruction string
	History           []Turn
	Prompt            string
	Attachments       []Attachment
	// JSONOutput asks the model for application/json instead of prose.
	JSONOutput bool
}

type Client interface {
	GenerateText(ctx context.Context, req Request) (string, error)
	GenerateJSON(ctx context.Context, req Request, out any) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	MaxRetries     int
}

func NewClient(log *logger.Logger, opts Options) (Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 120
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second},
		maxRetries: opts.MaxRetries,
	}, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

// quotaMarkers are the substrings the API uses in quota and rate-limit
// refusals.
var quotaMarkers = []string{
	"RESOURCE_EXHAUSTED",
	"quota",
	"rate limit",
	"429",
}

// IsQuotaError reports whether the error text indicates a quota or
// rate-limit refusal.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func isRetryableHTTP(code int) bool {
	return code == 408 || code == 429 || (code >= 500 && code <= 599)
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var hErr *httpError
	if errors.As(err, &hErr) {
		return isRetryableHTTP(hErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

// ---- wire types ----

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *client) buildBody(req Request) generateRequest {
	body := generateRequest{
		GenerationConfig: generationConfig{Temperature: 0.4},
	}
	if req.JSONOutput {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	for _, turn := range req.History {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		body.Contents = append(body.Contents, content{Role: role, Parts: []part{{Text: turn.Content}}})
	}
	final := content{Role: "user", Parts: []part{{Text: req.Prompt}}}
	for _, att := range req.Attachments {
		final.Parts = append(final.Parts, part{InlineData: &inlineData{
			MIMEType: att.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(att.Data),
		}})
	}
	body.Contents = append(body.Contents, final)
	return body
}

func (c *client) doOnce(ctx context.Context, body generateRequest) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) generate(ctx context.Context, req Request) (string, error) {
	body := c.buildBody(req)
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			return decodeText(raw)
		}
		lastErr = err

		var hErr *httpError
		if errors.As(err, &hErr) && hErr.StatusCode == 429 {
			// Rate limiting gets one retry round like other transient
			// failures, but surfaces as the quota condition once spent.
			lastErr = fmt.Errorf("%w: %s", ErrQuotaExceeded, hErr.Body)
		} else if IsQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}

		if !isRetryableErr(err) || attempt == c.maxRetries {
			return "", lastErr
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("Gemini request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
	return "", lastErr
}

func decodeText(raw []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("gemini decode error: %w; raw=%s", err, string(raw))
	}
	if resp.Error != nil {
		return "", fmt.Errorf("gemini error %s: %s", resp.Error.Status, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty candidate")
	}
	return text, nil
}

func (c *client) GenerateText(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req)
}

// GenerateJSON runs a generation call with JSON output requested and
// decodes the result into out. A fenced-code wrapper around the JSON is
// tolerated; anything else that fails to parse is a generation failure.
func (c *client) GenerateJSON(ctx context.Context, req Request, out any) error {
	req.JSONOutput = true
	text, err := c.generate(ctx, req)
	if err != nil {
		return err
	}
	cleaned := StripJSONFence(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("generation output is not the expected JSON shape: %w", err)
	}
	return nil
}

// StripJSONFence removes a surrounding markdown code fence from model
// output, if present.
func StripJSONFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
