package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

// newStubServer answers every request with status and body and records what it saw.
func newStubServer(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	ch := make(chan recordedRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ch <- recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(b),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func newTestClient(baseURL string) *Client {
	return NewClient("test", baseURL+"/api/v1", &http.Client{Timeout: 5 * time.Second}, nil)
}

type fakeTokens struct {
	token   string
	cleared int
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, nil }

func (f *fakeTokens) Clear(context.Context) error {
	f.cleared++
	f.token = ""
	return nil
}

func TestRequestSuccess(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"ok":true}`)
	c := newTestClient(srv.URL)

	ctx := middleware.WithCorrelationID(context.Background(), "cid-1")
	payload, err := c.Request(ctx, http.MethodPost, "/orders", url.Values{"a": {"1"}}, map[string]int{"n": 2})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(payload))

	got := <-reqs
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/api/v1/orders", got.Path)
	require.Equal(t, "a=1", got.RawQuery)
	require.Equal(t, "application/json", got.Header.Get("Content-Type"))
	require.Equal(t, "cid-1", got.Header.Get(middleware.HeaderCorrelationID))
	require.Empty(t, got.Header.Get("Authorization"))
	require.JSONEq(t, `{"n":2}`, got.Body)
}

func TestRequestNoContent(t *testing.T) {
	srv, _ := newStubServer(t, http.StatusNoContent, "")
	c := newTestClient(srv.URL)

	payload, err := c.Request(context.Background(), http.MethodDelete, "/x", nil, nil)
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestRequestErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 404, `{"detail":"Promocode not found"}`, "Promocode not found"},
		{"validation list", 422, `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required, too short"},
		{"object detail", 400, `{"detail":{"code":7}}`, `{"code":7}`},
		{"no detail", 500, `{"oops":1}`, "Error 500"},
		{"invalid body", 502, `<html>bad gateway</html>`, "Error 502: server returned an invalid response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newStubServer(t, tc.status, tc.body)
			c := newTestClient(srv.URL)

			_, err := c.Request(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)

			var ce *Error
			require.True(t, errors.As(err, &ce))
			require.Equal(t, KindServer, ce.Kind)
			require.Equal(t, tc.status, ce.Status)
			require.Equal(t, tc.want, ce.Message)
			require.False(t, IsNetwork(err))
		})
	}
}

func TestRequestNonJSONSuccessIsDataShape(t *testing.T) {
	srv, _ := newStubServer(t, http.StatusOK, "plain text")
	c := newTestClient(srv.URL)

	_, err := c.Request(context.Background(), http.MethodGet, "/x", nil, nil)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindDataShape, ce.Kind)
}

func TestRequestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := newTestClient(base).Request(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	require.True(t, IsNetwork(err))
	require.Equal(t, 0, StatusOf(err))
	require.Equal(t, networkMessage, MessageOf(err))
}

func TestAuthenticatedClient(t *testing.T) {
	t.Run("sends bearer token", func(t *testing.T) {
		srv, reqs := newStubServer(t, http.StatusOK, `{}`)
		tokens := &fakeTokens{token: "tok"}
		c := newTestClient(srv.URL).WithTokens(tokens, nil)

		_, err := c.Request(context.Background(), http.MethodGet, "/admin/orders", nil, nil)
		require.NoError(t, err)
		require.Equal(t, "Bearer tok", (<-reqs).Header.Get("Authorization"))
	})

	t.Run("401 clears token and fires hook", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
		tokens := &fakeTokens{token: "stale"}
		fired := false
		c := newTestClient(srv.URL).WithTokens(tokens, func(context.Context) { fired = true })

		_, err := c.Request(context.Background(), http.MethodGet, "/admin/orders", nil, nil)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, 1, tokens.cleared)
		require.Empty(t, tokens.token)
		require.True(t, fired)
	})

	t.Run("401 on plain client is a server error", func(t *testing.T) {
		srv, _ := newStubServer(t, http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`)
		_, err := newTestClient(srv.URL).Request(context.Background(), http.MethodPost, "/auth/token", nil, nil)
		require.False(t, errors.Is(err, ErrUnauthorized))
		require.Equal(t, "Incorrect username or password", MessageOf(err))
	})
}

func TestMultipartPassesThrough(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusCreated, `{"product_id":"p1"}`)
	c := newTestClient(srv.URL)

	form, err := NewMultipart(url.Values{"name": {"Lamp"}, "is_active": {"true"}}, []FilePart{
		{Field: "images", Filename: "a.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), http.MethodPost, "/admin/products/", nil, form)
	require.NoError(t, err)

	got := <-reqs
	require.Equal(t, form.ContentType(), got.Header.Get("Content-Type"))
	require.True(t, strings.HasPrefix(got.Header.Get("Content-Type"), "multipart/form-data; boundary="))
	require.Contains(t, got.Body, `name="name"`)
	require.Contains(t, got.Body, `filename="a.png"`)
}

func TestFormEncodedBody(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"access_token":"abc","token_type":"bearer"}`)
	auth := NewAuthClient(newTestClient(srv.URL))

	tok, err := auth.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.Equal(t, "abc", tok.AccessToken)

	got := <-reqs
	require.Equal(t, "/api/v1/auth/token", got.Path)
	require.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	form, err := url.ParseQuery(got.Body)
	require.NoError(t, err)
	require.Equal(t, "admin", form.Get("username"))
	require.Equal(t, "secret", form.Get("password"))
}
