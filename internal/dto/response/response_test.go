package response

import (
	"encoding/json"
	"testing"

	"gym-backoffice/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityToResponseStripsCredentials(t *testing.T) {
	hash, session, otp := "hash", "session", "4821"
	phone := "+15550001111"
	identity := &entity.Identity{
		Base:     entity.Base{ID: 3},
		PublicID: "RTU-03",
		Role:     entity.RoleUser,
		Phone:    &phone,
		Active:   true,
	}
	creds := &entity.Credentials{PasswordHash: &hash, SessionToken: &session, OTPCode: &otp, MustChangePassword: true}

	body, err := json.Marshal(IdentityToResponse(identity, creds))
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `"unique_id":"RTU-03"`)
	assert.Contains(t, s, `"must_change_password":true`)
	assert.NotContains(t, s, "hash")
	assert.NotContains(t, s, "session")
	assert.NotContains(t, s, "4821")
}

func TestNewPaginatedResponse(t *testing.T) {
	page := NewPaginatedResponse([]int{1, 2}, 2, 2, 5)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, int64(5), page.Pagination.Total)
}
