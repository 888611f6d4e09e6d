package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trackadmission/go-services/internal/models"
	"github.com/trackadmission/go-services/pkg/middleware"
)

// GenerateAccessToken creates a signed HS256 access token for the user
func GenerateAccessToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         u.Sub,
		"email":       u.Email,
		"given_name":  u.FirstName,
		"family_name": u.LastName,
		"role":        string(u.Role),
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

var errMissingExp = errors.New("token has no exp claim")

type mapToken jwt.MapClaims

func (t mapToken) Claims(v interface{}) error {
	mm, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims type %T", v)
	}
	*mm = map[string]interface{}(t)
	return nil
}

// HMACVerifier checks HS256 tokens issued with GenerateAccessToken. It backs
// the auth middleware when no identity provider is configured.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	// exp is validated when present; tokens without one are refused
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, errMissingExp
	}
	return mapToken(claims), nil
}
