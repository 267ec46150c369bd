package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Get fetches path and decodes the JSON body into out. out may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

// Patch sends a partial update and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: in}, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

// GetRaw fetches path and returns the undecoded body, for callers that inspect its shape.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) call(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return &DecodeError{Method: req.Method, Path: req.Path, Err: err}
	}
	return nil
}

// DecodeError is a 2xx response whose body did not match the expected shape.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return "gateway: decode " + e.Method + " " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
