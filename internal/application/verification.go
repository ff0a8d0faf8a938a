package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultCodeTTL is how long an issued verification code stays redeemable.
const DefaultCodeTTL = 10 * time.Minute

const codeSpace = 1000000

// CodeStore keeps at most one pending verification code per email address.
// Issuing a new code replaces any earlier one for the same address, and a
// successful Verify consumes the record so a code cannot be redeemed twice.
type CodeStore struct {
	mu      sync.Mutex
	now     func() time.Time
	ttl     time.Duration
	entries map[string]codeEntry
}

type codeEntry struct {
	code      string
	userID    string
	expiresAt time.Time
}

func NewCodeStore(ttl time.Duration, now func() time.Time) *CodeStore {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &CodeStore{
		now:     now,
		ttl:     ttl,
		entries: make(map[string]codeEntry),
	}
}

// Issue generates a fresh six digit code for the address, replacing any
// pending code, and returns it together with its expiry instant.
func (s *CodeStore) Issue(email, userID string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now()
	expiry := now.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.entries[email] = codeEntry{code: code, userID: userID, expiresAt: expiry}
	return code, expiry, nil
}

// Verify redeems the pending code for the address. On success the record is
// consumed and the associated user id returned. A mismatched code leaves the
// record in place so the user can retry; an expired record is removed.
func (s *CodeStore) Verify(email, code string) (string, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok {
		return "", ErrNoPendingCode
	}
	if now.After(entry.expiresAt) {
		delete(s.entries, email)
		return "", ErrCodeExpired
	}
	if entry.code != code {
		return "", ErrInvalidCode
	}

	delete(s.entries, email)
	return entry.userID, nil
}

func (s *CodeStore) pruneLocked(now time.Time) {
	for email, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, email)
		}
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
