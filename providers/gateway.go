package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TheRakeshPurohit/consoleauth/internal/util"
)

const (
	// userAgent identifies the engine on every provider API call.
	userAgent = "consoleauth/" + Version

	// defaultRequestTimeout bounds provider calls when neither the inbound
	// context nor the injected HTTP client carries a deadline.
	defaultRequestTimeout = 30 * time.Second

	// maxResponseBody caps how much of a provider response is read.
	maxResponseBody = 1 << 20

	// errorSnippetLen is how much response body a TransportError carries.
	errorSnippetLen = 512
)

// Gateway issues JSON requests to provider APIs and translates failures into
// the engine's error taxonomy. It owns no retry, caching, or rate-limiting
// policy; those belong to the injected *http.Client if anywhere.
type Gateway struct {
	client *http.Client
	logger *slog.Logger
}

// NewGateway wraps the given client. A nil client gets a default one with
// the engine's request timeout; a nil logger falls back to slog.Default().
func NewGateway(client *http.Client, logger *slog.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, logger: logger}
}

// GetJSON issues a GET and decodes the JSON response into dst.
func (g *Gateway) GetJSON(ctx context.Context, rawURL string, header http.Header, dst any) error {
	body, err := g.roundTrip(ctx, http.MethodGet, rawURL, header, "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, body, dst)
}

// PostJSON posts a JSON-encoded body and decodes the JSON response into dst.
func (g *Gateway) PostJSON(ctx context.Context, rawURL string, header http.Header, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &MalformedResponseError{URL: rawURL, Reason: "encode request body", Err: err}
	}
	data, err := g.roundTrip(ctx, http.MethodPost, rawURL, header, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, data, dst)
}

// PostForm posts a URL-encoded form and returns the raw response body.
// Token endpoints answer either JSON or a form-encoded body, so decoding is
// left to the caller.
func (g *Gateway) PostForm(ctx context.Context, rawURL string, header http.Header, form url.Values) ([]byte, error) {
	body := strings.NewReader(form.Encode())
	return g.roundTrip(ctx, http.MethodPost, rawURL, header, "application/x-www-form-urlencoded", body)
}

// roundTrip executes one request, returning the response body for 2xx
// statuses and a *TransportError otherwise.
func (g *Gateway) roundTrip(ctx context.Context, method, rawURL string, header http.Header, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: rawURL, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	g.logger.Debug("provider request", "method", method, "url", rawURL)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	g.logger.Debug("provider response", "method", method, "url", rawURL, "status", resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       util.SafeTruncate(string(data), errorSnippetLen),
		}
	}
	return data, nil
}

// decodeJSON unmarshals a provider response, classifying failures as
// malformed responses.
func decodeJSON(rawURL string, data []byte, dst any) error {
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &MalformedResponseError{URL: rawURL, Reason: "invalid JSON", Err: err}
	}
	return nil
}
