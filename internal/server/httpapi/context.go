package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"

	userValuePrincipal = "principal"
	userValueRequestID = "request_id"
	headerRequestID    = "X-Request-ID"
)

func requestID(ctx *fasthttp.RequestCtx) string {
	if id, ok := ctx.UserValue(userValueRequestID).(string); ok {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, id)
	ctx.Response.Header.Set(headerRequestID, id)
	return id
}

// requestContext derives a stdlib context carrying the request timeout and
// the request id. The id is taken from X-Request-ID or generated, and is
// echoed in the response.
func requestContext(ctx *fasthttp.RequestCtx, timeout time.Duration) (context.Context, context.CancelFunc) {
	std := context.WithValue(context.Background(), keyRequestID, requestID(ctx))
	if timeout <= 0 {
		return context.WithCancel(std)
	}
	return context.WithTimeout(std, timeout)
}

// RequestID returns the request id stored by requestContext.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

func principalFrom(ctx *fasthttp.RequestCtx) *models.Principal {
	p, _ := ctx.UserValue(userValuePrincipal).(*models.Principal)
	return p
}
