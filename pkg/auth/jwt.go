package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/pkg/models"
)

const JwtAlg = "HS256"

const DefaultTokenTTL = 24 * time.Hour

func tokenAuth(cfg *config.Config) *jwtauth.JWTAuth {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		log.Fatal("Auth secret not set. Ensure UPLIFT_AUTH_SECRET is set in your environment.")
	}
	return jwtauth.New(JwtAlg, secret, nil)
}

// GenerateJWT generates a claimless JWT token using the given config.
// Requires that UPLIFT_AUTH_SECRET is set in the environment. Used by the
// CLI to mint service tokens.
func GenerateJWT(cfg *config.Config) string {
	_, tokenString, err := tokenAuth(cfg).Encode(nil)
	if err != nil {
		log.Fatal("Error generating auth token: ", err)
	}

	return tokenString
}

// GenerateUserJWT generates a login token carrying the user identity.
func GenerateUserJWT(cfg *config.Config, user *models.User) (string, error) {
	ttl := cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	claims := map[string]any{
		"user_uuid": user.UUID.String(),
		"admin":     user.Admin,
		"exp":       time.Now().Add(ttl).Unix(),
	}

	_, tokenString, err := tokenAuth(cfg).Encode(claims)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func JWTVerifier(cfg *config.Config) func(http.Handler) http.Handler {
	return jwtauth.Verifier(tokenAuth(cfg))
}

// UserUUIDFromContext extracts the authenticated user's UUID from the
// request context populated by the JWT verifier.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return uuid.Nil, models.NewUnauthorizedError("missing or invalid token")
	}

	raw, ok := claims["user_uuid"].(string)
	if !ok {
		return uuid.Nil, models.NewUnauthorizedError("token carries no user identity")
	}

	userUUID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.NewUnauthorizedError("token carries an invalid user identity")
	}

	return userUUID, nil
}

// IsAdminFromContext reports whether the authenticated token carries the
// admin claim.
func IsAdminFromContext(ctx context.Context) bool {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return false
	}

	admin, ok := claims["admin"].(bool)
	return ok && admin
}
