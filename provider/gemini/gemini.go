package gemini_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements the completion capability against the Gemini
// generateContent API, with optional search grounding tools.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Gemini client.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

// tool carries at most one grounding declaration.
type tool struct {
	GoogleSearch          *struct{} `json:"google_search,omitempty"`
	GoogleSearchRetrieval *struct{} `json:"google_search_retrieval,omitempty"`
}

type request struct {
	Contents []content `json:"contents"`
	Tools    []tool    `json:"tools,omitempty"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate runs prompt against model. A non-empty mode attaches the matching
// grounding tool; a "not supported" rejection from the API is reported as a
// capability.Error with kind Unsupported so callers can fall back, everything
// else as Transient.
func (c *Client) Generate(ctx context.Context, prompt, model string, mode capability.GroundingMode) (string, error) {
	reqBody := request{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	switch mode {
	case capability.GroundingGoogleSearch:
		reqBody.Tools = []tool{{GoogleSearch: &struct{}{}}}
	case capability.GroundingSearchRetrieval:
		reqBody.Tools = []tool{{GoogleSearchRetrieval: &struct{}{}}}
	case capability.GroundingNone:
	default:
		return "", capability.Unsupported(mode, fmt.Errorf("unknown grounding mode %q", mode))
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", capability.Transient(mode, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", capability.Transient(mode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.classifyError(mode, resp.StatusCode, body)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", capability.Transient(mode, fmt.Errorf("parsing response: %w", err))
	}
	if len(parsed.Candidates) == 0 {
		return "", capability.Transient(mode, fmt.Errorf("response contained no candidates"))
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// classifyError maps API rejections onto the capability taxonomy. The
// grounding-unsupported rejection arrives as a 400 with a distinctive
// message; that and only that is safe to fall back from.
func (c *Client) classifyError(mode capability.GroundingMode, status int, body []byte) error {
	var parsed response
	message := string(body)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = parsed.Error.Message
	}
	if mode != capability.GroundingNone && strings.Contains(message, "Search Grounding is not supported") {
		return capability.Unsupported(mode, fmt.Errorf("API status %d: %s", status, message))
	}
	return capability.Transient(mode, fmt.Errorf("API status %d: %s", status, message))
}
