package token

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Access tokens are short-lived and sent in the
// Authorization header; refresh tokens live in an HttpOnly cookie; OTP tokens
// carry a password-recovery code.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
	OTPTokenTTL     = 10 * time.Minute
)

// Claims is the payload shared by access and refresh tokens. The account id
// travels under the legacy claim name "id".
type Claims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

type otpClaims struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies the three token classes, each with its own
// secret. All verification failures collapse into the same error so callers
// cannot distinguish a bad signature from an expired token.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	otpSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	otpTTL        time.Duration
}

func NewIssuer(accessSecret, refreshSecret, otpSecret []byte) *Issuer {
	return &Issuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		otpSecret:     otpSecret,
		accessTTL:     AccessTokenTTL,
		refreshTTL:    RefreshTokenTTL,
		otpTTL:        OTPTokenTTL,
	}
}

// MustNewIssuerFromEnv builds an Issuer from ACCESS_TOKEN_SECRET,
// REFRESH_TOKEN_SECRET and OTP_SECRET. A missing secret is a fatal startup
// condition for any binary that signs tokens.
func MustNewIssuerFromEnv() *Issuer {
	access := os.Getenv("ACCESS_TOKEN_SECRET")
	refresh := os.Getenv("REFRESH_TOKEN_SECRET")
	otp := os.Getenv("OTP_SECRET")
	if access == "" || refresh == "" || otp == "" {
		panic("ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET and OTP_SECRET must be set")
	}
	return NewIssuer([]byte(access), []byte(refresh), []byte(otp))
}

func (i *Issuer) IssueAccessToken(accountID string) (string, error) {
	return i.sign(accountID, i.accessSecret, i.accessTTL)
}

func (i *Issuer) IssueRefreshToken(accountID string) (string, error) {
	return i.sign(accountID, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) sign(accountID string, secret []byte, ttl time.Duration) (string, error) {
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) VerifyAccessToken(tokenString string) (string, error) {
	return i.verify(tokenString, i.accessSecret)
}

func (i *Issuer) VerifyRefreshToken(tokenString string) (string, error) {
	return i.verify(tokenString, i.refreshSecret)
}

func (i *Issuer) verify(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !token.Valid || claims.AccountID == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.AccountID, nil
}

// IssueOTPToken binds a recovery code to an email for ten minutes. The
// client holds this token and presents it alongside the code it received by
// mail; the server stores nothing.
func (i *Issuer) IssueOTPToken(email, otp string) (string, error) {
	claims := otpClaims{
		Email: email,
		OTP:   otp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.otpTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.otpSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) VerifyOTPToken(tokenString string) (email, otp string, err error) {
	claims := &otpClaims{}
	token, parseErr := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return i.otpSecret, nil
	})
	if parseErr != nil || !token.Valid || claims.Email == "" || claims.OTP == "" {
		return "", "", fmt.Errorf("invalid token")
	}
	return claims.Email, claims.OTP, nil
}
