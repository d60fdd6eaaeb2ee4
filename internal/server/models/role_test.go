package models

import (
	"testing"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleAdmin.Satisfies(RoleUser))
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))
	assert.True(t, RoleUser.Satisfies(RoleUser))
	assert.False(t, RoleUser.Satisfies(RoleAdmin))
	assert.False(t, Role("ROOT").Satisfies(RoleUser))
	assert.False(t, RoleAdmin.Satisfies(Role("ROOT")))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("owner")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRoles(t *testing.T) {
	assert.True(t, Roles{RoleAdmin}.Has(RoleUser))
	assert.False(t, Roles{RoleUser}.Has(RoleAdmin))
	assert.False(t, Roles{}.Has(RoleUser))

	assert.Equal(t, RoleAdmin, Roles{RoleUser, RoleAdmin}.Highest())
	assert.Equal(t, Role(""), Roles{}.Highest())

	assert.ErrorIs(t, Roles{}.Validate(), common.ErrorValidation)
	assert.ErrorIs(t, Roles{RoleUser, "GOD"}.Validate(), common.ErrorValidation)
	assert.NoError(t, Roles{RoleUser, RoleAdmin}.Validate())

	assert.Equal(t, Roles{RoleAdmin, RoleUser}, Roles{RoleUser, RoleAdmin, RoleUser}.Normalize())
}

func TestRoles_ValueScan(t *testing.T) {
	v, err := Roles{RoleAdmin, RoleUser}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["ADMIN","USER"]`, v)

	v, err = Roles(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	var rs Roles
	require.NoError(t, rs.Scan([]byte(`["USER"]`)))
	assert.Equal(t, Roles{RoleUser}, rs)

	require.NoError(t, rs.Scan(`["ADMIN"]`))
	assert.Equal(t, Roles{RoleAdmin}, rs)

	require.NoError(t, rs.Scan(nil))
	assert.Nil(t, rs)

	assert.Error(t, rs.Scan(42))
	assert.Error(t, rs.Scan(`not json`))
}

func TestPrincipalOf(t *testing.T) {
	u := &User{ID: "u1", Email: "a@x.com", Roles: Roles{RoleUser}}
	p := PrincipalOf(u)
	u.Roles[0] = RoleAdmin

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, Roles{RoleUser}, p.Roles, "principal holds a snapshot")
}
