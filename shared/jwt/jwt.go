package jwt

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ebrain/board/shared/domain"
	internal_errors "github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/logger"
)

type JwtService interface {
	NewToken(identity domain.Identity) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(identity domain.Identity) (string, error) {
	claims := jwt.MapClaims{}
	claims["sub"] = identity.Id
	claims["name"] = identity.Name
	claims["role"] = string(identity.Type)
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, internal_errors.Unauthorized("Invalid token signature")
	}

	if !token.Valid {
		return nil, internal_errors.Unauthorized("Invalid access token")
	}

	return token, nil
}

// IdentityFromClaims rebuilds the requester identity carried by a decoded token.
func IdentityFromClaims(token *jwt.Token) (*domain.Identity, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing sub claim")
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	if utf8.RuneCountInString(sub) > domain.MaxAuthorIdLen {
		return nil, fmt.Errorf("sub claim exceeds %d characters", domain.MaxAuthorIdLen)
	}
	if utf8.RuneCountInString(name) > domain.MaxAuthorNameLen {
		return nil, fmt.Errorf("name claim exceeds %d characters", domain.MaxAuthorNameLen)
	}

	switch domain.AuthorType(role) {
	case domain.AuthorAdmin, domain.AuthorMember:
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	return &domain.Identity{Type: domain.AuthorType(role), Id: sub, Name: name}, nil
}
