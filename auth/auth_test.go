package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/auth"
	"github.com/warp/attendance-engine/payroll"
)

func TestHashPIN_RoundTrip(t *testing.T) {
	hash, err := auth.HashPIN("4812")
	require.NoError(t, err)
	assert.NotEqual(t, "4812", hash, "PIN must never be stored in clear")

	assert.NoError(t, auth.CheckPIN(hash, "4812"))
	assert.Error(t, auth.CheckPIN(hash, "0000"))
	assert.Error(t, auth.CheckPIN("", "4812"))
}

func TestToken_RoundTrip(t *testing.T) {
	emp := payroll.Employee{ID: "emp-1", Role: payroll.RoleWorker}

	token, err := auth.GenerateToken("test-secret", emp, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.EmployeeID)
	assert.Equal(t, string(payroll.RoleWorker), claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestParseToken_WrongSecret(t *testing.T) {
	emp := payroll.Employee{ID: "emp-1", Role: payroll.RoleWorker}

	token, err := auth.GenerateToken("test-secret", emp, time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	emp := payroll.Employee{ID: "emp-1", Role: payroll.RoleWorker}

	token, err := auth.GenerateToken("test-secret", emp, -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken("test-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := auth.ParseToken("test-secret", "not-a-token")
	assert.Error(t, err)
}

func TestClaims_IsAdmin(t *testing.T) {
	admin := payroll.Employee{ID: "emp-2", Role: payroll.RoleAdmin}

	token, err := auth.GenerateToken("test-secret", admin, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}
