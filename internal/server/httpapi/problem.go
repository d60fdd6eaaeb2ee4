package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/valyala/fasthttp"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// problemFor maps a domain error to its problem document.
func problemFor(err error) Problem {
	var (
		dup *common.DuplicateEmailError
		nf  *common.UserNotFoundError
		fe  FieldErrors
		ve  *common.ValidationError
	)

	switch {
	case errors.As(err, &nf):
		return Problem{Title: "User not found", Status: http.StatusNotFound, Detail: "User " + nf.ID + " not found"}
	case errors.Is(err, common.ErrorNotFound):
		return Problem{Title: "User not found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.As(err, &dup):
		return Problem{Title: "Email not allowed", Status: http.StatusConflict, Detail: "Provided email " + dup.Email + " is already registered"}
	case errors.As(err, &fe):
		return Problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "Validation failed", Errors: fe}
	case errors.As(err, &ve):
		return Problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "Validation failed", Errors: map[string]string{ve.Field: ve.Reason}}
	case errors.Is(err, common.ErrorValidation):
		return Problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "Validation failed"}
	case errors.Is(err, common.ErrorUnauthorized):
		return Problem{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: "Full authentication is required"}
	case errors.Is(err, common.ErrorForbidden):
		return Problem{Title: "Access denied", Status: http.StatusForbidden, Detail: "Access denied"}
	default:
		return Problem{Title: "Internal Server Error", Status: http.StatusInternalServerError, Detail: "Internal Server Error"}
	}
}

func writeProblem(ctx *fasthttp.RequestCtx, p Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	p.Instance = string(ctx.Path())
	if p.Status == http.StatusUnauthorized {
		ctx.Response.Header.Set("WWW-Authenticate", `Basic realm="erm"`)
	}

	body, _ := json.Marshal(p)
	ctx.Response.Header.SetContentType(problemContentType)
	ctx.SetStatusCode(p.Status)
	ctx.SetBody(body)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeProblem(ctx, problemFor(err))
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
