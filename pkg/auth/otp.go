package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

const (
	OTPLength             = 6
	DefaultOTPTTL         = time.Minute
	DefaultOTPHourlyLimit = 5
)

var log = internal.GetLogger()

// GenerateOTP returns a random six digit verification code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// OTPService issues and verifies one-time codes for account verification and
// password resets. Codes expire quickly and issuance is rate limited per
// user and purpose.
type OTPService struct {
	cfg    *config.Config
	store  models.UserStore
	mailer models.Mailer
}

func NewOTPService(cfg *config.Config, store models.UserStore, mailer models.Mailer) *OTPService {
	return &OTPService{cfg: cfg, store: store, mailer: mailer}
}

func (s *OTPService) ttl() time.Duration {
	if s.cfg != nil && s.cfg.Auth.OTP.TTL > 0 {
		return s.cfg.Auth.OTP.TTL
	}
	return DefaultOTPTTL
}

func (s *OTPService) hourlyLimit() int {
	if s.cfg != nil && s.cfg.Auth.OTP.HourlyLimit > 0 {
		return s.cfg.Auth.OTP.HourlyLimit
	}
	return DefaultOTPHourlyLimit
}

// Request issues a new code for the user and delivers it by mail. A new code
// replaces any live code for the same purpose.
func (s *OTPService) Request(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	count, err := s.store.CountOTPsSince(ctx, user.UUID, purpose, time.Now().Add(-models.OTPRateWindow))
	if err != nil {
		return err
	}
	if count >= s.hourlyLimit() {
		return models.NewBadRequestError("too many codes requested, try again later")
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}

	otp := &models.OTP{
		UserUUID:  user.UUID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl()),
	}
	if err := s.store.SaveOTP(ctx, otp); err != nil {
		return err
	}

	subject := "Your verification code"
	if purpose == models.OTPPurposeReset {
		subject = "Your password reset code"
	}
	body := fmt.Sprintf(
		"Your code is %s. It expires in %d seconds.",
		code,
		int(s.ttl().Seconds()),
	)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		log.Errorf("failed to send OTP mail to %s: %v", user.Email, err)
		return err
	}

	return nil
}

// Verify checks a submitted code and consumes it on success.
func (s *OTPService) Verify(
	ctx context.Context,
	user *models.User,
	purpose models.OTPPurpose,
	code string,
) error {
	otp, err := s.store.GetOTP(ctx, user.UUID, purpose)
	if err != nil {
		return err
	}

	if time.Now().After(otp.ExpiresAt) {
		return models.NewUnauthorizedError("code has expired")
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return models.NewUnauthorizedError("invalid code")
	}

	return s.store.DeleteOTP(ctx, otp.UUID)
}
