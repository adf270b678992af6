package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/golang-jwt/jwt/v5"
)

const TokenType = "bearer"

// Claims is the identity carried by an access token. Subject is the
// user's UUID.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is not set")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// IssueToken signs an HS256 token for the given claims. Any ExpiresAt on
// the input is ignored; expiry is always now + ttl.
func (i *TokenIssuer) IssueToken(claims Claims) (string, time.Time, error) {
	if claims.Subject == "" {
		return "", time.Time{}, fmt.Errorf("token subject is required")
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.Subject,
		"email": claims.Email,
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "Invalid or expired token", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}

	expiresAt, err := mapClaims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}

	email, _ := mapClaims["email"].(string)

	return &Claims{
		Subject:   subject,
		Email:     email,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
