package services

import (
	"testing"

	"github.com/dmitrijs2005/erm/internal/cryptox"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var testPages = models.PageSizeConfig{Default: 20, Max: 100}

func newHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(auth.HasherConfig{
		Argon2: cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
	})
	require.NoError(t, err)
	return h
}

func newServices(t *testing.T) (*UserService, *ProjectService, *repomanager.MemoryRepositoryManager) {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()
	log := logging.Nop()
	return NewUserService(m.Conn(), m, newHasher(t), log, testPages),
		NewProjectService(m.Conn(), m, log, testPages),
		m
}
