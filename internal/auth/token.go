package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes.
const (
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

var (
	// ErrTokenMissing is returned for an empty token.
	ErrTokenMissing = errors.New("missing token")
	// ErrTokenInvalid is returned for tokens with a bad signature or shape.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenPurpose is returned when a token is used for the wrong flow.
	ErrTokenPurpose = errors.New("invalid token purpose")
	// ErrTokenExpired is returned for expired tokens.
	ErrTokenExpired = errors.New("expired token")
	// ErrTokenState is returned when the account changed since the token was issued.
	ErrTokenState = errors.New("token no longer matches the account")
)

// TokenClaims are the claims of mailed links.
type TokenClaims struct {
	UserID  uint64 `json:"uid"`
	Purpose string `json:"purpose"`
	// State binds the token to the account state it was issued for: the email
	// address for verification, a password fingerprint for resets.
	State string `json:"state"`
	jwt.RegisteredClaims
}

// Tokens issues and checks the signed links sent by mail.
type Tokens struct {
	secret    []byte
	verifyTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewTokens returns a Tokens signing with secret.
func NewTokens(secret string, verifyTTL, resetTTL time.Duration) *Tokens {
	return &Tokens{
		secret:    []byte(secret),
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// VerifyEmailToken issues a verification token for the given address.
func (t *Tokens) VerifyEmailToken(userID uint64, email string) (string, error) {
	return t.build(userID, PurposeVerifyEmail, emailState(email), t.verifyTTL)
}

// ParseVerifyEmailToken checks a verification token. The caller compares the
// state with emailState of the current address using StateMatches.
func (t *Tokens) ParseVerifyEmailToken(raw string) (*TokenClaims, error) {
	return t.parse(raw, PurposeVerifyEmail)
}

// PasswordResetToken issues a reset token bound to the current password hash,
// so it stops working once the password changed.
func (t *Tokens) PasswordResetToken(userID uint64, passwordHash string) (string, error) {
	state := PasswordFingerprint(passwordHash)
	if state == "" {
		return "", ErrTokenState
	}

	return t.build(userID, PurposePasswordReset, state, t.resetTTL)
}

// ParsePasswordResetToken checks a reset token.
func (t *Tokens) ParsePasswordResetToken(raw string) (*TokenClaims, error) {
	return t.parse(raw, PurposePasswordReset)
}

func (t *Tokens) build(userID uint64, purpose, state string, ttl time.Duration) (string, error) {
	now := t.now()

	claims := TokenClaims{
		UserID:  userID,
		Purpose: purpose,
		State:   state,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) parse(raw, purpose string) (*TokenClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenMissing
	}

	claims := &TokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	case claims.Purpose != purpose:
		return nil, ErrTokenPurpose
	case claims.UserID == 0 || claims.State == "":
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// PasswordFingerprint derives a non reversible marker of a password hash.
func PasswordFingerprint(passwordHash string) string {
	return fingerprint("docket.reset.password-state.v1:", passwordHash)
}

func emailState(email string) string {
	return fingerprint("docket.verify.email.v1:", strings.ToLower(email))
}

func fingerprint(prefix, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(prefix + value))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// PasswordStateMatches reports whether claims were issued for passwordHash.
func PasswordStateMatches(claims *TokenClaims, passwordHash string) bool {
	return stateMatches(claims.State, PasswordFingerprint(passwordHash))
}

// EmailStateMatches reports whether claims were issued for email.
func EmailStateMatches(claims *TokenClaims, email string) bool {
	return stateMatches(claims.State, emailState(email))
}

func stateMatches(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
