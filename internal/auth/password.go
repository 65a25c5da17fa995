package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used outside tests.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on your production hardware.
// Each +1 doubles the work. Tests pass bcrypt.MinCost (4) instead.
const DefaultCost = 12

// bcrypt silently ignores everything after the 72nd byte. We reject longer
// passwords so "correct horse battery staple..." and a longer variant with
// the same prefix never hash to the same thing.
const maxPasswordBytes = 72

var (
	ErrPasswordMismatch = errors.New("auth: invalid password")
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
)

// PasswordService provides bcrypt hashing and verification.
//
// WHY BCRYPT?
// bcrypt is deliberately slow and salts every hash, and the salt and cost
// are embedded in the output:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
//
// so the users table needs only one password column.
type PasswordService struct {
	cost int
	// dummy is a hash of a random-ish string at the same cost. Comparing
	// against it when the email is unknown makes a failed login take as long
	// as a wrong password, so response time does not reveal which emails exist.
	dummy []byte
}

// NewPasswordService creates a PasswordService. A cost of 0 means DefaultCost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("devconnector-timing-equalizer"), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: preparing password service: %w", err)
	}
	return &PasswordService{cost: cost, dummy: dummy}, nil
}

// Hash hashes the given plaintext password with bcrypt. Store the returned
// string as is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// It returns ErrPasswordMismatch on a wrong password and another error if
// the hash itself is unusable.
//
// bcrypt.CompareHashAndPassword compares in constant time.
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

// VerifyNothing burns the same time as a failed Verify. Call it on login
// attempts for unknown emails.
func (p *PasswordService) VerifyNothing(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}
