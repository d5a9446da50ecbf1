package server

import (
	"net/http"

	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

// RegisterHandler creates a new user account and sends a verification code.
func RegisterHandler(appState *models.AppState) http.HandlerFunc {
	otpService := auth.NewOTPService(appState.Config, appState.UserStore, appState.Mailer)
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateUserRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			renderError(w, err)
			return
		}
		req.PasswordHash = hash

		user, err := appState.UserStore.Create(r.Context(), &req)
		if err != nil {
			renderError(w, err)
			return
		}

		// Verification mail failures don't fail signup; the code can be
		// requested again.
		if err := otpService.Request(r.Context(), user, models.OTPPurposeVerify); err != nil {
			log.Warnf("failed to send verification code to %s: %v", user.Email, err)
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, user); err != nil {
			renderError(w, err)
			return
		}
	}
}

// LoginHandler verifies credentials and returns a signed JWT.
func LoginHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByEmail(r.Context(), req.Email)
		if err != nil {
			renderError(w, models.NewUnauthorizedError("invalid credentials"))
			return
		}
		if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			renderError(w, err)
			return
		}

		if err := appState.UserStore.RecordLogin(r.Context(), user.UUID); err != nil {
			log.Warnf("failed to record login for %s: %v", user.UUID, err)
		}

		token, err := auth.GenerateUserJWT(appState.Config, user)
		if err != nil {
			renderError(w, err)
			return
		}

		if err := encodeJSON(w, models.TokenResponse{Token: token, User: user}); err != nil {
			renderError(w, err)
			return
		}
	}
}

// RequestOTPHandler issues a fresh one-time code for the given purpose.
func RequestOTPHandler(appState *models.AppState, purpose models.OTPPurpose) http.HandlerFunc {
	otpService := auth.NewOTPService(appState.Config, appState.UserStore, appState.Mailer)
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RequestOTPRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByEmail(r.Context(), req.Email)
		if err != nil {
			renderError(w, err)
			return
		}

		if err := otpService.Request(r.Context(), user, purpose); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// VerifyAccountHandler consumes a verification code and marks the account
// verified.
func VerifyAccountHandler(appState *models.AppState) http.HandlerFunc {
	otpService := auth.NewOTPService(appState.Config, appState.UserStore, appState.Mailer)
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.VerifyOTPRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByEmail(r.Context(), req.Email)
		if err != nil {
			renderError(w, err)
			return
		}

		if err := otpService.Verify(r.Context(), user, models.OTPPurposeVerify, req.Code); err != nil {
			renderError(w, err)
			return
		}
		if err := appState.UserStore.MarkVerified(r.Context(), user.UUID); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// ResetPasswordHandler consumes a reset code and sets a new password.
func ResetPasswordHandler(appState *models.AppState) http.HandlerFunc {
	otpService := auth.NewOTPService(appState.Config, appState.UserStore, appState.Mailer)
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetPasswordRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByEmail(r.Context(), req.Email)
		if err != nil {
			renderError(w, err)
			return
		}

		if err := otpService.Verify(r.Context(), user, models.OTPPurposeReset, req.Code); err != nil {
			renderError(w, err)
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := appState.UserStore.UpdatePassword(r.Context(), user.UUID, hash); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// ChangePasswordHandler sets a new password after checking the old one.
func ChangePasswordHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		var req models.ChangePasswordRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByUUID(r.Context(), userUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := auth.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
			renderError(w, err)
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := appState.UserStore.UpdatePassword(r.Context(), user.UUID, hash); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// GetProfileHandler returns the authenticated user's profile.
func GetProfileHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		user, err := appState.UserStore.GetByUUID(r.Context(), userUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, user); err != nil {
			renderError(w, err)
			return
		}
	}
}

// UpdateProfileHandler updates the authenticated user's name fields.
func UpdateProfileHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		var req models.UpdateUserRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}
		req.UUID = userUUID

		user, err := appState.UserStore.Update(r.Context(), &req)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, user); err != nil {
			renderError(w, err)
			return
		}
	}
}
