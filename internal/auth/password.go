package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for hashes produced by the
// hash-password command. Roughly 250ms per hash on current hardware.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer input is silently
// truncated by bcrypt, so Hash refuses it.
const maxPasswordBytes = 72

var (
	// ErrInvalidPassword is returned by Verify when the password does not
	// match the hash.
	ErrInvalidPassword = errors.New("auth: invalid password")

	// ErrPasswordTooLong is returned by Hash for input over 72 bytes.
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
)

// PasswordService hashes and verifies bcrypt passwords.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given cost.
// Pass bcrypt.MinCost (4) in tests of other packages; never use it in
// production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. The output embeds salt and
// cost, e.g. $2a$12$<22-char salt><31-char hash>. The limit is in bytes,
// not characters.
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

// Verify returns nil if plaintext matches hash, ErrInvalidPassword if it
// does not, and another error if hash is malformed. The comparison is
// constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
