package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

// TokenSource supplies the bearer token for authenticated clients and
// forgets it when the upstream rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
	Logger  *zap.Logger

	// Tokens turns this into an authenticated client. Nil means no
	// Authorization header and no special 401 handling.
	Tokens TokenSource
	// OnUnauthorized runs after the token has been cleared on a 401.
	OnUnauthorized func(ctx context.Context)
}

func NewClient(name string, baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, baseURL, err))
	}
	return &Client{Name: name, BaseURL: u, HTTP: httpClient, Logger: logging.OrNop(logger)}
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource, onUnauthorized func(ctx context.Context)) *Client {
	cp := *c
	cp.Tokens = ts
	cp.OnUnauthorized = onUnauthorized
	return &cp
}

// Request performs one upstream call and returns the raw JSON payload.
// path must already be escaped. A 204 yields a nil payload.
//
// body is encoded by type: nil sends nothing, *Multipart is sent as-is,
// url.Values is form-encoded and anything else is marshalled to JSON.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.BaseURL.String() + path)
	if err != nil {
		return nil, fmt.Errorf("%s: build url %q: %w", c.Name, path, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", c.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", c.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}
	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: load token: %w", c.Name, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.Logger.With(
		zap.String("upstream", c.Name),
		zap.String("method", method),
		zap.String("path", path),
	)
	log.Debug("upstream request")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Warn("upstream unreachable", zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	defer resp.Body.Close()

	log = log.With(zap.Int("status", resp.StatusCode))

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && c.Tokens != nil {
		log.Info("upstream rejected token")
		if err := c.Tokens.Clear(ctx); err != nil {
			log.Warn("clear token", zap.Error(err))
		}
		if c.OnUnauthorized != nil {
			c.OnUnauthorized(ctx)
		}
		return nil, &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: unauthorizedMessage, Err: ErrUnauthorized}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("read upstream body", zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: networkMessage, Err: err}
	}

	var payload json.RawMessage
	if json.Valid(data) {
		payload = json.RawMessage(data)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case !ok:
		e := serverError(resp.StatusCode, payload)
		log.Warn("upstream error", zap.String("message", e.Message))
		return nil, e
	case payload == nil:
		log.Warn("upstream returned non-JSON body")
		return nil, &Error{Kind: KindDataShape, Status: resp.StatusCode, Message: nonJSONMessage}
	}
	return payload, nil
}

// Call is Request followed by decoding a non-null payload into out.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, err := c.Request(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || payload == nil || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindDataShape, Message: fmt.Sprintf("unexpected response shape from %s", c.Name), Payload: payload, Err: err}
	}
	return nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return bytes.NewReader(b.Bytes()), b.ContentType(), nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
