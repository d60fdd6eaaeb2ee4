package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/erm/internal/cryptox"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/erm/internal/server/services"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const (
	adminEmail = "admin@example.com"
	userEmail  = "user@example.com"
	secret     = "s3cret"
)

type testAPI struct {
	handler  fasthttp.RequestHandler
	users    *services.UserService
	projects *services.ProjectService
	admin    *models.User
	user     *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(auth.HasherConfig{
		Argon2: cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
	})
	require.NoError(t, err)

	m := repomanager.NewMemoryRepositoryManager()
	pages := models.PageSizeConfig{Default: 20, Max: 100}
	log := logging.Nop()
	users := services.NewUserService(m.Conn(), m, hasher, log, pages)
	projects := services.NewProjectService(m.Conn(), m, log, pages)

	ctx := t.Context()
	admin, err := users.Create(ctx, services.CreateUserCommand{Email: adminEmail, Password: secret, Name: "Admin", Roles: models.Roles{models.RoleAdmin}})
	require.NoError(t, err)
	user, err := users.Create(ctx, services.CreateUserCommand{Email: userEmail, Password: secret, Name: "User", Roles: models.Roles{models.RoleUser}})
	require.NoError(t, err)

	h := NewHandler(users, projects, log, time.Second)
	r := NewRouter(h, BasicAuth(users, log, time.Second))

	return &testAPI{handler: r.Handler, users: users, projects: projects, admin: admin, user: user}
}

func basic(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

// do runs one request through the router. An empty email sends no
// credentials.
func (a *testAPI) do(method, uri, email string, body any) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if email != "" {
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, basic(email, secret))
	}
	if body != nil {
		raw, _ := json.Marshal(body)
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBody(raw)
	}
	a.handler(ctx)
	return ctx
}

func decode[T any](t *testing.T, ctx *fasthttp.RequestCtx) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &v), string(ctx.Response.Body()))
	return v
}
