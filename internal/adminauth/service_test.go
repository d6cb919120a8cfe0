package adminauth

import (
	"context"
	"testing"
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

type stubStore struct {
	admins   map[string]*models.AdminUser
	otps     map[string]*models.OTPVerification
	upserted *models.OTPVerification
	consumed []string
}

func (s *stubStore) FindAdminByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	if a, ok := s.admins[email]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) UpsertOTP(_ context.Context, otp *models.OTPVerification) error {
	s.upserted = otp
	if s.otps == nil {
		s.otps = map[string]*models.OTPVerification{}
	}
	s.otps[otp.Email] = otp
	return nil
}

func (s *stubStore) FindOTPByEmail(_ context.Context, email string) (*models.OTPVerification, error) {
	if otp, ok := s.otps[email]; ok {
		return otp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) MarkOTPVerified(_ context.Context, email string) error {
	s.consumed = append(s.consumed, email)
	return nil
}

type stubLimiter struct {
	allowed bool
}

func (l *stubLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return l.allowed, 0, nil
}

type stubSender struct {
	sent []mailer.Email
}

func (s *stubSender) Send(_ context.Context, email mailer.Email) error {
	s.sent = append(s.sent, email)
	return nil
}

func testConfigs() (config.OTPConfig, config.SessionConfig) {
	otp := config.OTPConfig{
		CodeLength:    6,
		TTL:           5 * time.Minute,
		RequestWindow: 10 * time.Minute,
		RequestLimit:  3,
	}
	session := config.SessionConfig{
		Secret:     "test-secret-test-secret-test-1234",
		Issuer:     "beatvault",
		TTLMinutes: 60,
		CookieName: "admin_session",
	}
	return otp, session
}

func newTestService(t *testing.T, st *stubStore, limiter *stubLimiter, sender *stubSender) Service {
	t.Helper()
	otpCfg, sessionCfg := testConfigs()
	svc, err := NewService(st, limiter, sender, logger.New(logger.Options{ServiceName: "test"}), otpCfg, sessionCfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRequestOTPIssuesCodeForKnownAdmin(t *testing.T) {
	st := &stubStore{admins: map[string]*models.AdminUser{
		"admin@example.com": {Email: "admin@example.com"},
	}}
	sender := &stubSender{}
	svc := newTestService(t, st, &stubLimiter{allowed: true}, sender)

	if err := svc.RequestOTP(context.Background(), "  Admin@Example.com "); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if st.upserted == nil {
		t.Fatal("expected otp row upserted")
	}
	if st.upserted.Email != "admin@example.com" {
		t.Fatalf("expected normalized email, got %q", st.upserted.Email)
	}
	if st.upserted.Verified {
		t.Fatal("fresh code must not be pre-verified")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "admin@example.com" {
		t.Fatalf("expected one code email, got %v", sender.sent)
	}
}

func TestRequestOTPUnknownEmailIsSilent(t *testing.T) {
	st := &stubStore{}
	sender := &stubSender{}
	svc := newTestService(t, st, &stubLimiter{allowed: true}, sender)

	if err := svc.RequestOTP(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if st.upserted != nil || len(sender.sent) != 0 {
		t.Fatal("expected no code issued for unknown email")
	}
}

func TestRequestOTPRateLimited(t *testing.T) {
	svc := newTestService(t, &stubStore{}, &stubLimiter{allowed: false}, &stubSender{})

	err := svc.RequestOTP(context.Background(), "admin@example.com")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestVerifyOTPSuccessMintsSession(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash code: %v", err)
	}
	st := &stubStore{otps: map[string]*models.OTPVerification{
		"admin@example.com": {
			Email:     "admin@example.com",
			CodeHash:  string(hash),
			ExpiresAt: time.Now().Add(time.Minute),
		},
	}}
	svc := newTestService(t, st, &stubLimiter{allowed: true}, &stubSender{})

	token, err := svc.VerifyOTP(context.Background(), "admin@example.com", "123456")
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if len(st.consumed) != 1 {
		t.Fatal("expected code consumed on success")
	}

	_, sessionCfg := testConfigs()
	claims, err := auth.ParseSessionToken(sessionCfg, token)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Email != "admin@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestVerifyOTPFailureMatrixIsUniform(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash code: %v", err)
	}

	base := func() *models.OTPVerification {
		return &models.OTPVerification{
			Email:     "admin@example.com",
			CodeHash:  string(hash),
			ExpiresAt: time.Now().Add(time.Minute),
		}
	}

	cases := []struct {
		name   string
		mutate func(*stubStore)
		code   string
	}{
		{"noRecord", func(s *stubStore) { delete(s.otps, "admin@example.com") }, "123456"},
		{"wrongCode", func(*stubStore) {}, "654321"},
		{"expired", func(s *stubStore) { s.otps["admin@example.com"].ExpiresAt = time.Now().Add(-time.Second) }, "123456"},
		{"alreadyVerified", func(s *stubStore) { s.otps["admin@example.com"].Verified = true }, "123456"},
	}

	var messages []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &stubStore{otps: map[string]*models.OTPVerification{"admin@example.com": base()}}
			tc.mutate(st)
			svc := newTestService(t, st, &stubLimiter{allowed: true}, &stubSender{})

			_, err := svc.VerifyOTP(context.Background(), "admin@example.com", tc.code)
			if err == nil {
				t.Fatal("expected verification failure")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if len(st.consumed) != 0 {
				t.Fatal("failed verification must not consume the code")
			}
			messages = append(messages, typed.Message())
		})
	}

	for i := 1; i < len(messages); i++ {
		if messages[i] != messages[0] {
			t.Fatalf("expected identical failure messages, got %q and %q", messages[0], messages[i])
		}
	}
}

func TestNewCodeShape(t *testing.T) {
	code, err := newCode(6)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected digits only, got %q", code)
		}
	}
}
