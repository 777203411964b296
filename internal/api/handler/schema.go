package handler

import "github.com/starterkit/webapp/internal/core/domain"

// errorResponse documents the error envelope rendered by the HTTP error handler.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Users resource ---

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
	Avatar   string `json:"avatar"   validate:"omitempty,url"`
}

// replaceUserRequest is the body of PUT /users/:id. Every field is required.
type replaceUserRequest struct {
	Name   string `json:"name"   validate:"required,min=2"`
	Email  string `json:"email"  validate:"required,email"`
	Role   string `json:"role"   validate:"required,oneof=user admin"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

// patchUserRequest is the body of PATCH /users/:id. Absent fields are left unchanged.
type patchUserRequest struct {
	Name   *string `json:"name"   validate:"omitempty,min=2"`
	Email  *string `json:"email"  validate:"omitempty,email"`
	Role   *string `json:"role"   validate:"omitempty,oneof=user admin"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
}

type listUsersQuery struct {
	Page   int    `query:"page"   validate:"omitempty,min=1"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
	Search string `query:"search"`
}

type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type listUsersResponse struct {
	Data []domain.Identity `json:"data"`
	Meta pageMeta          `json:"meta"`
}

type deleteUserResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
