package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider issues the short-lived access token the recorder identity
// presents to the vendor when a session starts.
type TokenProvider interface {
	RecorderToken(channel string, uid uint32) (string, error)
}

type JWTClaims struct {
	Channel string `json:"channel,omitempty"`
	UID     string `json:"uid,omitempty"`
	Role    string `json:"role,omitempty"`

	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

func NewJWTService(secretKey string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// RecorderToken mints a subscriber-scoped token bound to one channel and one
// recorder identity.
func (s *JWTService) RecorderToken(channel string, uid uint32) (string, error) {
	claims := &JWTClaims{
		Channel: channel,
		UID:     fmt.Sprintf("%d", uid),
		Role:    "subscriber",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "meetvault",
			Subject:   fmt.Sprintf("%s/%d", channel, uid),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secretKey)
}

func (s *JWTService) VerifyToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
