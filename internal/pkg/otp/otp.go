// Package otp derives time-windowed one-time passcodes from a per-user
// stored secret. The secret is the source of truth for a challenge; the
// passcode itself is never stored, it is re-derived on every request and
// checked against the same derivation at verification time.
package otp

import (
	"fmt"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Window is how long a derived passcode stays valid. Codes are bound to a
// coarse time bucket of this size, so a code from a previous bucket fails.
const Window = 5 * time.Minute

const issuer = "NullJobs"

var opts = totp.ValidateOpts{
	Period:    uint(Window / time.Second),
	Skew:      0,
	Digits:    potp.DigitsSix,
	Algorithm: potp.AlgorithmSHA1,
}

// GenerateSecretWithCode creates a fresh secret and derives the currently
// valid passcode from it. Used once per user, on the first challenge ever.
func GenerateSecretWithCode(now time.Time) (code, secret string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: issuer,
		Period:      opts.Period,
		Digits:      opts.Digits,
		Algorithm:   opts.Algorithm,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate otp secret: %w", err)
	}
	secret = key.Secret()
	code, err = GenerateCode(secret, now)
	if err != nil {
		return "", "", err
	}
	return code, secret, nil
}

// GenerateCode re-derives the currently valid passcode from an existing
// secret, for repeat challenges. Errors only on an empty or malformed
// secret, which is a programmer error, never a user one.
func GenerateCode(secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("otp: empty secret")
	}
	code, err := totp.GenerateCodeCustom(secret, now, opts)
	if err != nil {
		return "", fmt.Errorf("derive otp: %w", err)
	}
	return code, nil
}

// Verify reports whether candidate matches the passcode derivable from
// secret at now. A wrong, stale, or malformed code and a missing secret are
// all ordinary negative results, not errors.
func Verify(secret, candidate string, now time.Time) bool {
	if secret == "" || candidate == "" {
		return false
	}
	ok, err := totp.ValidateCustom(candidate, secret, now, opts)
	return err == nil && ok
}
