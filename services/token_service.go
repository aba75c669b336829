package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is what the auth middleware trusts about a request.
type TokenClaims struct {
	UserID string
	Role   string
}

type TokenService interface {
	Generate(userID, role string) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
}

type jwtTokenService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTTokenService(secret string, expiry time.Duration) TokenService {
	return &jwtTokenService{secret: []byte(secret), expiry: expiry}
}

func (s *jwtTokenService) Generate(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *jwtTokenService) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &TokenClaims{UserID: sub, Role: role}, nil
}
