package redis

import (
	"context"
	"errors"
	"strings"
	"time"
)

// OTPStore keeps hashed sign-in codes keyed by e-mail.
type OTPStore struct {
	store Store
}

func NewOTPStore(store Store) *OTPStore {
	return &OTPStore{store: store}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func otpKey(email string) string {
	return Key("otp", normaliseEmail(email))
}

func otpFailuresKey(email string) string {
	return Key("otp", "failures", normaliseEmail(email))
}

// Save stores a new pending code and resets its failure count.
func (s *OTPStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	if err := s.store.Set(ctx, otpKey(email), hash, ttl); err != nil {
		return err
	}
	return s.store.Del(ctx, otpFailuresKey(email))
}

// RecordFailure counts a wrong guess; the count expires with the code.
func (s *OTPStore) RecordFailure(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	return s.store.IncrWithTTL(ctx, otpFailuresKey(email), ttl)
}

// Load returns the stored hash, or found=false when none is pending.
func (s *OTPStore) Load(ctx context.Context, email string) (string, bool, error) {
	v, err := s.store.Get(ctx, otpKey(email))
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	return s.store.Del(ctx, otpKey(email), otpFailuresKey(email))
}
