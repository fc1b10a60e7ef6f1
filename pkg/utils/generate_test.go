package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{4}$`)
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP(4)
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
	}

	code, err := GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 4)
}

func TestGenerateTempPassword(t *testing.T) {
	shape := regexp.MustCompile(`^[A-Za-z]{3}@[0-9]{3}$`)
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.Regexp(t, shape, pw)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("9876543210", "+91"))
	assert.Equal(t, "+15550001111", NormalizePhone(" +15550001111 ", "+91"))
	assert.Equal(t, "9876543210", NormalizePhone("9876543210", ""))
	assert.Equal(t, "", NormalizePhone("", "+91"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret!", ""))
}

func TestValidateStruct(t *testing.T) {
	type body struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}

	errs := ValidateStruct(body{Email: "nope", Password: "123"})
	require.Len(t, errs, 2)
	assert.Equal(t, "Invalid email format", errs["Email"])
	assert.Equal(t, "Minimum length is 6", errs["Password"])

	assert.Nil(t, ValidateStruct(body{Email: "a@b.co", Password: "123456"}))
}
