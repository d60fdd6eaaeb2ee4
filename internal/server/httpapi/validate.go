package httpapi

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/valyala/fasthttp"
)

// FieldErrors collects per-field validation messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return "validation failed"
}

func (fe FieldErrors) Unwrap() error {
	return common.ErrorValidation
}

func (fe FieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validateUserRequest checks the syntax of a user body and converts roles.
func validateUserRequest(req *UserRequest) (models.Roles, error) {
	fe := FieldErrors{}

	switch {
	case strings.TrimSpace(req.Email) == "":
		fe.add("email", "must not be blank")
	case !validEmail(req.Email):
		fe.add("email", "must be a well-formed email address")
	}
	if strings.TrimSpace(req.Password) == "" {
		fe.add("password", "must not be blank")
	}

	roles := make(models.Roles, 0, len(req.Roles))
	if len(req.Roles) == 0 {
		fe.add("roles", "must not be empty")
	}
	for _, s := range req.Roles {
		r, err := models.ParseRole(s)
		if err != nil {
			fe.add("roles", "unknown role "+strconv.Quote(s))
			continue
		}
		roles = append(roles, r)
	}

	if len(fe) > 0 {
		return nil, fe
	}
	return roles, nil
}

func validateProjectRequest(req *ProjectRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return FieldErrors{"name": "must not be blank"}
	}
	return nil
}

// pageRequest reads ?page=&size=&sort= query arguments.
func pageRequest(ctx *fasthttp.RequestCtx) (models.PageRequest, error) {
	args := ctx.QueryArgs()
	fe := FieldErrors{}
	var req models.PageRequest

	if v := args.Peek("page"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 0 {
			fe.add("page", "must be a non-negative integer")
		}
		req.Index = n
	}
	if v := args.Peek("size"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 1 {
			fe.add("size", "must be a positive integer")
		}
		req.Size = n
	}

	sort, err := models.ParseSort(string(args.Peek("sort")))
	if err != nil {
		fe.add("sort", "must be createdAt or name, optionally followed by ,asc or ,desc")
	}
	req.Sort = sort

	if len(fe) > 0 {
		return models.PageRequest{}, fe
	}
	return req, nil
}
