// Package users is the client of the admin users resource.
package users

import (
	"context"
	"net/url"
	"strconv"

	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/core/domain"
)

const basePath = "/users"

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of GET /users.
type Page struct {
	Data []domain.Identity `json:"data" validate:"dive"`
	Meta Meta              `json:"meta"`
}

type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// ReplaceInput is a full profile for PUT.
type ReplaceInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// PatchInput sends only the non-nil fields.
type PatchInput struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type Deleted struct {
	ID      string `json:"id"      validate:"required"`
	Deleted bool   `json:"deleted"`
}

type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// List fetches a page. Zero page or limit leaves the server defaults.
func (c *Client) List(ctx context.Context, page, limit int, search string) (Page, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	return apiclient.Get[Page](ctx, c.api, basePath, q)
}

func (c *Client) Get(ctx context.Context, id string) (domain.Identity, error) {
	return apiclient.Get[domain.Identity](ctx, c.api, itemPath(id), nil)
}

func (c *Client) Create(ctx context.Context, in CreateInput) (domain.Identity, error) {
	return apiclient.Post[domain.Identity](ctx, c.api, basePath, in)
}

func (c *Client) Update(ctx context.Context, id string, in ReplaceInput) (domain.Identity, error) {
	return apiclient.Put[domain.Identity](ctx, c.api, itemPath(id), in)
}

func (c *Client) Patch(ctx context.Context, id string, in PatchInput) (domain.Identity, error) {
	return apiclient.Patch[domain.Identity](ctx, c.api, itemPath(id), in)
}

func (c *Client) Delete(ctx context.Context, id string) (Deleted, error) {
	return apiclient.Delete[Deleted](ctx, c.api, itemPath(id))
}

func itemPath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}
