// Package backend is a JSON-over-HTTP client for the catalog backend.
//
// It satisfies importer.Backend: list endpoints feed the reference snapshot
// and the bulk endpoint receives validated drafts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("backend returned %d for %s %s", e.Status, e.Method, e.Path)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to the catalog REST API rooted at a base URL.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL, e.g. "https://api.example.com/api".
// timeout bounds every request; zero means no client-side limit.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	if err := c.getList(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSubcategories returns every subcategory.
func (c *Client) ListSubcategories(ctx context.Context) ([]catalog.Subcategory, error) {
	var out []catalog.Subcategory
	if err := c.getList(ctx, "/subcategories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts returns the existing products.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	if err := c.getList(ctx, "/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// bulkRequest is the body of POST /products/bulk.
type bulkRequest struct {
	Products []catalog.ProductDraft `json:"products"`
}

// BulkCreateProducts submits all drafts in one request.
func (c *Client) BulkCreateProducts(ctx context.Context, products []catalog.ProductDraft) (*catalog.BulkResult, error) {
	body, err := json.Marshal(bulkRequest{Products: products})
	if err != nil {
		return nil, fmt.Errorf("encode bulk request: %w", err)
	}

	var out catalog.BulkResult
	if err := c.do(ctx, http.MethodPost, "/products/bulk", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getList fetches a list endpoint. Both a bare JSON array and an envelope
// of the form {"data": [...]} are accepted.
func (c *Client) getList(ctx context.Context, path string, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if len(envelope.Data) == 0 {
			return fmt.Errorf("decode %s: object response without data field", path)
		}
		trimmed = envelope.Data
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do sends one request and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: empty response body", path)
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
