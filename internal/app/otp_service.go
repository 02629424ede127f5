package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	netmail "net/mail"
	"strings"
	"time"

	"groona_alerts/internal/domain/mail"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrOTPInvalid   = errors.New("invalid or expired sign-in code")
	ErrInvalidEmail = errors.New("invalid email address")
)

const (
	otpDigits = 6
	// MaxOTPAttempts wrong guesses burn the pending code.
	MaxOTPAttempts = 5
)

// CodeStore persists hashed sign-in codes with an expiry.
type CodeStore interface {
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Load(ctx context.Context, email string) (string, bool, error)
	Delete(ctx context.Context, email string) error
	// RecordFailure counts a wrong guess for the pending code and returns
	// the total so far. Save resets the count.
	RecordFailure(ctx context.Context, email string, ttl time.Duration) (int64, error)
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; background: #f6f7fb; padding: 24px;">
    <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
      <h2 style="color: #1f2937;">Your Groona sign-in code</h2>
      <p style="color: #4b5563;">Enter this code to finish signing in:</p>
      <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #111827;">{{.Code}}</p>
      <p style="color: #6b7280; font-size: 14px;">The code expires in {{.Minutes}} minutes. If you did not try to sign in, you can ignore this email.</p>
    </div>
  </body>
</html>`))

// OTPService issues and verifies one-time sign-in codes sent by email.
type OTPService struct {
	codes  CodeStore
	sender mail.Sender
	from   string
	ttl    time.Duration
	logger *logrus.Entry
	gen    func() (string, error)
}

func NewOTPService(codes CodeStore, sender mail.Sender, from string, ttl time.Duration, logger *logrus.Entry) *OTPService {
	return &OTPService{
		codes:  codes,
		sender: sender,
		from:   from,
		ttl:    ttl,
		logger: logger,
		gen:    GenerateCode,
	}
}

// Issue creates a fresh code for email, replacing any pending one, and sends it.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if addr, err := netmail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	code, err := s.gen()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}
	if err := s.codes.Save(ctx, email, string(hash), s.ttl); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	msg, err := RenderOTPMessage(s.from, email, code, s.ttl)
	if err != nil {
		return err
	}
	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send sign-in code: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"email": email, "provider_id": id}).Info("Sign-in code sent")
	return nil
}

// Verify checks code against the pending one and consumes it on success.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	hash, found, err := s.codes.Load(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load code: %w", err)
	}
	if !found {
		return ErrOTPInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))); err != nil {
		s.recordFailure(ctx, email)
		return ErrOTPInvalid
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("Failed to delete consumed code")
	}
	return nil
}

// recordFailure burns the pending code once MaxOTPAttempts is reached.
func (s *OTPService) recordFailure(ctx context.Context, email string) {
	log := s.logger.WithField("email", email)
	failures, err := s.codes.RecordFailure(ctx, email, s.ttl)
	if err != nil {
		log.WithError(err).Warn("Failed to count wrong sign-in code, burning the code")
		failures = MaxOTPAttempts
	}
	if failures < MaxOTPAttempts {
		return
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		log.WithError(err).Error("Failed to delete code after too many attempts")
		return
	}
	log.WithField("failures", failures).Warn("Too many wrong sign-in codes, code revoked")
}

// RenderOTPMessage builds the sign-in email for code.
func RenderOTPMessage(from, to, code string, ttl time.Duration) (mail.Message, error) {
	var buf bytes.Buffer
	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl.Minutes())}
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render sign-in email: %w", err)
	}
	return mail.Message{
		From:    from,
		To:      []string{to},
		Subject: "Your Groona sign-in code",
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Your Groona sign-in code is %s. It expires in %d minutes.", code, data.Minutes),
	}, nil
}

// GenerateCode returns a uniformly random six-digit code.
func GenerateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
