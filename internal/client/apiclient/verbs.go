package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// Get issues GET path and decodes a validated T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Out: &out, Validate: true})
	return out, err
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Out: &out, Validate: true})
	return out, err
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Out: &out, Validate: true})
	return out, err
}

func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, Out: &out, Validate: true})
	return out, err
}

func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Out: &out, Validate: true})
	return out, err
}
