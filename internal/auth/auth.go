package auth

import (
	"errors"
	"fmt"
	"time"

	"pmchat/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("authentication required")
	ErrInvalidToken = errors.New("authentication failed")
)

// Claims is the token payload the rest of the platform issues for its
// users: an opaque user id plus the company the user belongs to.
type Claims struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	jwt.RegisteredClaims
}

// Verifier validates handshake tokens and produces the Principal bound to
// a connection. Verification happens exactly once, before any protocol
// message is accepted.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, ErrNoToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	if claims.UserID == "" || claims.CompanyID == "" {
		return models.Principal{}, ErrInvalidToken
	}

	return models.Principal{
		UserID:    claims.UserID,
		CompanyID: claims.CompanyID,
	}, nil
}

// Sign issues a token for the given principal. The server itself never
// issues tokens; this exists for the token CLI and for tests.
func (v *Verifier) Sign(p models.Principal, expiry time.Duration) (string, error) {
	claims := &Claims{
		UserID:    p.UserID,
		CompanyID: p.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
