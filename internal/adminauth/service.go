package adminauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/auth"
	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/mailer"
)

type store interface {
	FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpsertOTP(ctx context.Context, otp *models.OTPVerification) error
	FindOTPByEmail(ctx context.Context, email string) (*models.OTPVerification, error)
	MarkOTPVerified(ctx context.Context, email string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service implements the OTP login flow for catalog admins.
type Service interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
}

type service struct {
	store   store
	limiter rateLimiter
	mailer  mailer.Sender
	logger  *logger.Logger
	otpCfg  config.OTPConfig
	session config.SessionConfig
	now     func() time.Time
}

// NewService constructs the admin auth service.
func NewService(st store, limiter rateLimiter, sender mailer.Sender, logg *logger.Logger, otpCfg config.OTPConfig, session config.SessionConfig) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("admin store required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:   st,
		limiter: limiter,
		mailer:  sender,
		logger:  logg,
		otpCfg:  otpCfg,
		session: session,
		now:     time.Now,
	}, nil
}

// errInvalidCode is the single verification failure. Missing record, consumed
// code, expiry, and a wrong guess are indistinguishable to the caller.
var errInvalidCode = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")

// RequestOTP issues a fresh login code for a known admin. Unknown emails get
// the same nil response so the endpoint cannot be used to enumerate accounts.
func (s *service) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "otp_request:"+email, int64(s.otpCfg.RequestLimit), s.otpCfg.RequestWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many code requests, try again later")
	}

	if _, err := s.store.FindAdminByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info(ctx, fmt.Sprintf("otp requested for unknown email %s", email))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}

	code, err := newCode(s.otpCfg.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash code")
	}

	otp := &models.OTPVerification{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.otpCfg.TTL),
		Verified:  false,
	}
	if err := s.store.UpsertOTP(ctx, otp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert otp")
	}

	msg := mailer.OTPVerification(code, s.otpCfg.TTL)
	msg.To = email
	if err := s.mailer.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email")
	}
	return nil
}

// VerifyOTP consumes a valid code and returns a signed session token.
func (s *service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return "", errInvalidCode
	}

	otp, err := s.store.FindOTPByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errInvalidCode
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}

	now := s.now()
	if otp.Verified || !now.Before(otp.ExpiresAt) {
		return "", errInvalidCode
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		return "", errInvalidCode
	}

	if err := s.store.MarkOTPVerified(ctx, email); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: consume otp")
	}

	token, err := auth.MintSessionToken(s.session, now, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
