package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/valyala/fasthttp"
)

// Authenticator resolves a principal from credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Principal, error)
}

var basicPrefix = []byte("Basic ")

func parseBasicAuth(header []byte) (email, password string, ok bool) {
	if !bytes.HasPrefix(header, basicPrefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(string(header[len(basicPrefix):]))
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(decoded), ":")
}

// BasicAuth resolves the principal from HTTP Basic credentials on every
// request and stores it on the request context.
func BasicAuth(a Authenticator, logger logging.Logger, timeout time.Duration) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			email, password, ok := parseBasicAuth(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
			if !ok {
				writeProblem(ctx, problemFor(common.ErrorUnauthorized))
				return
			}

			stdCtx, cancel := requestContext(ctx, timeout)
			defer cancel()

			p, err := a.Authenticate(stdCtx, email, password)
			if err != nil {
				if !errors.Is(err, common.ErrorUnauthorized) {
					logger.Error(stdCtx, "authentication failed", "request_id", RequestID(stdCtx), "error", err)
				}
				writeProblem(ctx, problemFor(err))
				return
			}

			ctx.SetUserValue(userValuePrincipal, p)
			next(ctx)
		}
	}
}
