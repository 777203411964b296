package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/core/ports"
)

// UserHandler serves the admin users resource.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        search  query     string  false  "Partial match on email or name"
// @Success      200     {object}  listUsersResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listUsersQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), ports.ListUsersFilter{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Data: page.Items,
		Meta: pageMeta{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.Identity
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	identity, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Create handles POST /users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  domain.Identity
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.service.Create(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, identity)
}

// Replace handles PUT /users/:id.
//
// @Summary      Replace a user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "User id"
// @Param        body  body      replaceUserRequest  true  "Full profile"
// @Success      200   {object}  domain.Identity
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Replace(c echo.Context) error {
	var req replaceUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Name:   &req.Name,
		Email:  &req.Email,
		Role:   &req.Role,
		Avatar: &req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Patch handles PATCH /users/:id.
//
// @Summary      Update some fields of a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User id"
// @Param        body  body      patchUserRequest  true  "Changed fields"
// @Success      200   {object}  domain.Identity
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Patch(c echo.Context) error {
	var req patchUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Avatar: req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  deleteUserResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteUserResponse{ID: id, Deleted: true})
}
