// Package httpapi is the HTTP JSON transport. Every handler resolves the
// principal, asks the access policy, validates input and calls a manager.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/services"
	"github.com/valyala/fasthttp"
)

type UserManager interface {
	Authenticator
	Create(ctx context.Context, cmd services.CreateUserCommand) (*models.User, error)
	Update(ctx context.Context, cmd services.UpdateUserCommand) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, req models.PageRequest) (models.Page[*models.User], error)
}

type ProjectManager interface {
	Create(ctx context.Context, ownerID, name string) (*models.ExternalProject, error)
	List(ctx context.Context, ownerID string, req models.PageRequest) (models.Page[*models.ExternalProject], error)
}

// selfID is the path segment addressing the authenticated user.
const selfID = "me"

type Handler struct {
	users    UserManager
	projects ProjectManager
	logger   logging.Logger
	timeout  time.Duration
}

func NewHandler(users UserManager, projects ProjectManager, logger logging.Logger, timeout time.Duration) *Handler {
	return &Handler{users: users, projects: projects, logger: logger.With("component", "http"), timeout: timeout}
}

func (h *Handler) fail(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	p := problemFor(err)
	if p.Status == http.StatusInternalServerError {
		h.logger.Error(stdCtx, "request failed",
			"request_id", RequestID(stdCtx), "method", string(ctx.Method()), "path", string(ctx.Path()), "error", err)
	}
	writeProblem(ctx, p)
}

func decodeBody(ctx *fasthttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return FieldErrors{"body": "malformed JSON"}
	}
	return nil
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

// authorize runs the access policy for op and returns the owner to act on.
func (h *Handler) authorize(ctx *fasthttp.RequestCtx, op auth.Operation, ownerID string) (string, error) {
	return auth.Authorize(principalFrom(ctx), op, ownerID)
}

// recovered turns a handler panic into a 500 instead of killing the process.
func (h *Handler) recovered(ctx *fasthttp.RequestCtx, v any) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()
	h.fail(stdCtx, ctx, fmt.Errorf("panic: %v", v))
}

func (h *Handler) Health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	if _, err := h.authorize(ctx, auth.OpCreateUser, ""); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	var req UserRequest
	if err := decodeBody(ctx, &req); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	roles, err := validateUserRequest(&req)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	u, err := h.users.Create(stdCtx, services.CreateUserCommand{Email: req.Email, Password: req.Password, Name: req.Name, Roles: roles})
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) ListUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	if _, err := h.authorize(ctx, auth.OpListUsers, ""); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	req, err := pageRequest(ctx)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	page, err := h.users.List(stdCtx, req)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, toPagedResponse(page, toUserResponse))
}

// GetUser serves GET /api/user/{id}; "me" reads the caller's own record.
func (h *Handler) GetUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	op, id := auth.OpReadUser, pathID(ctx)
	if id == selfID {
		op = auth.OpReadSelf
	}
	owner, err := h.authorize(ctx, op, id)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	u, err := h.users.FindByID(stdCtx, owner)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, toUserResponse(u))
}

// UpdateUser serves PUT /api/user/{id}. On "me" the caller may not grant
// itself a role above its own.
func (h *Handler) UpdateUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	op, id := auth.OpUpdateUser, pathID(ctx)
	if id == selfID {
		op = auth.OpUpdateSelf
	}
	owner, err := h.authorize(ctx, op, id)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	var req UserRequest
	if err := decodeBody(ctx, &req); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	roles, err := validateUserRequest(&req)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	if op == auth.OpUpdateSelf {
		if err := auth.CheckRoleAssignment(principalFrom(ctx), roles); err != nil {
			h.fail(stdCtx, ctx, err)
			return
		}
	}

	u, err := h.users.Update(stdCtx, services.UpdateUserCommand{
		ID: owner, Email: req.Email, Password: req.Password, Name: req.Name, Roles: roles,
	})
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, toUserResponse(u))
}

func (h *Handler) DeleteUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	id := pathID(ctx)
	if _, err := h.authorize(ctx, auth.OpDeleteUser, id); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	deleted, err := h.users.Delete(stdCtx, id)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	if !deleted {
		h.fail(stdCtx, ctx, &common.UserNotFoundError{ID: id})
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// projectOwner authorizes a project operation on {id}. On the admin path the
// owner must exist.
func (h *Handler) projectOwner(stdCtx context.Context, ctx *fasthttp.RequestCtx, adminOp, selfOp auth.Operation) (string, error) {
	id := pathID(ctx)
	if id == selfID {
		return h.authorize(ctx, selfOp, "")
	}

	owner, err := h.authorize(ctx, adminOp, id)
	if err != nil {
		return "", err
	}
	if _, err := h.users.FindByID(stdCtx, owner); err != nil {
		return "", err
	}
	return owner, nil
}

func (h *Handler) CreateProject(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	owner, err := h.projectOwner(stdCtx, ctx, auth.OpCreateProject, auth.OpCreateOwnProject)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	var req ProjectRequest
	if err := decodeBody(ctx, &req); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	if err := validateProjectRequest(&req); err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	p, err := h.projects.Create(stdCtx, owner, req.Name)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, toProjectResponse(p))
}

func (h *Handler) ListProjects(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	owner, err := h.projectOwner(stdCtx, ctx, auth.OpListProjects, auth.OpListOwnProjects)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	req, err := pageRequest(ctx)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}

	page, err := h.projects.List(stdCtx, owner, req)
	if err != nil {
		h.fail(stdCtx, ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, toPagedResponse(page, toProjectResponse))
}
