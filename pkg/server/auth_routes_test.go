package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/testutils"
)

func TestRegisterLoginAndVerifyFlow(t *testing.T) {
	email, err := testutils.GenerateRandomEmail()
	require.NoError(t, err)

	// Register
	resp := doJSON(t, "POST", "/api/v1/auth/register", "", models.CreateUserRequest{
		Email:     email,
		Password:  "a-strong-password",
		FirstName: "Margaret",
		LastName:  "Hamilton",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, email, user.Email)
	assert.False(t, user.Verified)
	assert.Equal(t, email, testMailer.lastTo)
	assert.Contains(t, testMailer.lastSubject, "verification")

	// Duplicate email is rejected
	resp = doJSON(t, "POST", "/api/v1/auth/register", "", models.CreateUserRequest{
		Email:    email,
		Password: "a-strong-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Login with wrong password fails
	resp = doJSON(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{
		Email:    email,
		Password: "wrong-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login succeeds
	resp = doJSON(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{
		Email:    email,
		Password: "a-strong-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp models.TokenResponse
	decodeBody(t, resp, &tokenResp)
	assert.NotEmpty(t, tokenResp.Token)
	require.NotNil(t, tokenResp.User)
	assert.Equal(t, user.UUID, tokenResp.User.UUID)

	// Verify with the issued code
	otp, err := appState.UserStore.GetOTP(testCtx, user.UUID, models.OTPPurposeVerify)
	require.NoError(t, err)

	resp = doJSON(t, "POST", "/api/v1/auth/verify", "", models.VerifyOTPRequest{
		Email: email,
		Code:  otp.Code,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	verified, err := appState.UserStore.GetByUUID(testCtx, user.UUID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	// The code is consumed
	resp = doJSON(t, "POST", "/api/v1/auth/verify", "", models.VerifyOTPRequest{
		Email: email,
		Code:  otp.Code,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	user, _ := registerTestUser(t, false)

	resp := doJSON(t, "POST", "/api/v1/auth/reset/request", "", models.RequestOTPRequest{
		Email: user.Email,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, testMailer.lastSubject, "reset")

	otp, err := appState.UserStore.GetOTP(testCtx, user.UUID, models.OTPPurposeReset)
	require.NoError(t, err)

	// Wrong code fails
	resp = doJSON(t, "POST", "/api/v1/auth/reset", "", models.ResetPasswordRequest{
		Email:       user.Email,
		Code:        "000000",
		NewPassword: "another-strong-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, "POST", "/api/v1/auth/reset", "", models.ResetPasswordRequest{
		Email:       user.Email,
		Code:        otp.Code,
		NewPassword: "another-strong-password",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// New password works
	resp = doJSON(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{
		Email:    user.Email,
		Password: "another-strong-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	user, token := registerTestUser(t, false)

	// Wrong old password is rejected
	resp := doJSON(t, "POST", "/api/v1/user/password", token, models.ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "brand-new-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, "POST", "/api/v1/user/password", token, models.ChangePasswordRequest{
		OldPassword: "a-strong-password",
		NewPassword: "brand-new-password",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{
		Email:    user.Email,
		Password: "brand-new-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfileRoutes(t *testing.T) {
	user, token := registerTestUser(t, false)

	resp := doJSON(t, "GET", "/api/v1/user/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.User
	decodeBody(t, resp, &profile)
	assert.Equal(t, user.Email, profile.Email)

	resp = doJSON(t, "PATCH", "/api/v1/user/", token, models.UpdateUserRequest{
		FirstName: "Edsger",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.User
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Edsger", updated.FirstName)
	assert.Equal(t, "Hopper", updated.LastName)
}
