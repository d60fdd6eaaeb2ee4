package httpapi

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// NewRouter registers the API. "/api/user/me" is served by the {id} routes.
func NewRouter(h *Handler, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	r.PanicHandler = h.recovered

	r.GET("/health", h.Health)

	r.POST("/api/user", authMiddleware(h.CreateUser))
	r.GET("/api/user", authMiddleware(h.ListUsers))
	r.GET("/api/user/{id}", authMiddleware(h.GetUser))
	r.PUT("/api/user/{id}", authMiddleware(h.UpdateUser))
	r.DELETE("/api/user/{id}", authMiddleware(h.DeleteUser))

	r.POST("/api/user/{id}/external-project", authMiddleware(h.CreateProject))
	r.GET("/api/user/{id}/external-project", authMiddleware(h.ListProjects))

	return r
}
