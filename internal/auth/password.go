package auth

// PASSWORD HASHING:
// Passwords are stored as bcrypt digests, never in plaintext. bcrypt embeds
// a random salt and its cost factor in the digest itself:
//
//	$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//	 │  │  └─ 22 chars salt + 31 chars hash
//	 │  └──── cost (2^10 rounds)
//	 └─────── algorithm version
//
// Verify reads the cost and salt back out of the stored digest, so digests
// created with an older cost keep verifying after the default changes.
//
// LONG PASSWORDS:
// bcrypt only reads 72 bytes. Inputs longer than that are first reduced to
// base64(SHA-256(password)), 44 bytes, by both Hash and Verify, so every byte
// of a long password counts and none is rejected.

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

const defaultCost = bcrypt.DefaultCost

// ErrPasswordMismatch is returned by Verify when the plaintext does not match.
var ErrPasswordMismatch = errors.New("auth: invalid password")

type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest uses a low cost so tests hashing many passwords
// stay fast. bcrypt.MinCost (4) is the usual choice.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify compares plaintext against a stored digest. A wrong password yields
// ErrPasswordMismatch; a corrupt digest yields a different error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= MaxPasswordBytes {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
