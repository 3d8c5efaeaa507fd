// Password hashing.
//
// WHY BCRYPT?
// A stored password must survive a leaked database. Fast hashes such as SHA-256
// fail that test: a GPU tries billions of guesses per second against them.
// bcrypt is slow on purpose, and the cost factor lets us make it slower as
// hardware gets faster. Each step of the cost doubles the work:
//
//	cost 4   ->  ~1ms    (tests only)
//	cost 10  ->  ~60ms   (the default here)
//	cost 14  ->  ~1s
//
// A user logging in pays that price once. An attacker pays it for every guess.
//
// WHAT ABOUT SALT?
// bcrypt salts every hash with fresh randomness and embeds salt and cost in
// its output, so one column holds everything Verify needs:
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (10 rounds → 2^10 iterations)
//	 version

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// MaxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// instead of silently truncated.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification with a fixed cost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. A cost outside bcrypt's
// accepted range falls back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with the given cost and
// no range fallback. Tests in other packages pass bcrypt.MinCost (4).
//
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Cost returns the configured work factor.
func (p *PasswordService) Cost() int {
	return p.cost
}

// Hash hashes plaintext with bcrypt. The result is stored as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks plaintext against a stored bcrypt hash. It returns nil on a
// match and ErrPasswordMismatch on a wrong password. The comparison is
// constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
