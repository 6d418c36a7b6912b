package services

import (
	"fmt"
	"strings"
	"time"

	"loyaltystay/errors"

	"github.com/dgrijalva/jwt-go"
)

type UserInfo struct {
	UserId uint `json:"userid"`
	Role   int  `json:"role"`
}

type Claims struct {
	UserInfo UserInfo `json:"userinfo"`
	jwt.StandardClaims
}

// TokenService signs and parses HS256 access tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// GenerateToken issues an access token valid for ttl.
func (s *TokenService) GenerateToken(info UserInfo, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserInfo: info,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  s.now().Unix(),
			ExpiresAt: s.now().Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GetUserIDFromToken verifies the token and returns the user id and role it
// carries.
func (s *TokenService) GetUserIDFromToken(tokenString string) (uint, int, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return 0, 0, errors.BadRequest("Missing token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, 0, errors.NewAppError(errors.ErrCodeBadRequest, "Invalid token", err)
	}
	if claims.UserInfo.UserId == 0 {
		return 0, 0, errors.BadRequest("Token has no user")
	}
	return claims.UserInfo.UserId, claims.UserInfo.Role, nil
}
