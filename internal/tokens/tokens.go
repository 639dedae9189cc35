package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets so one can never be replayed as the other.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) sign(userID uint, typ string, ttl time.Duration, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Service) Issue(userID uint) (Pair, error) {
	access, err := s.sign(userID, TypeAccess, s.AccessTTL, s.AccessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID, TypeRefresh, s.RefreshTTL, s.RefreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (s *Service) parse(raw, typ string, secret []byte) (uint, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return 0, fmt.Errorf("%w: token is not valid", ErrInvalidToken)
	}
	if claims.TokenType != typ {
		return 0, fmt.Errorf("%w: token has wrong type", ErrInvalidToken)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: token contained no recognizable user identification", ErrInvalidToken)
	}
	return uint(id), nil
}

// VerifyAccess returns the user id carried by a valid access token.
func (s *Service) VerifyAccess(raw string) (uint, error) {
	return s.parse(raw, TypeAccess, s.AccessSecret)
}

// Refresh validates a refresh token and mints a new access token for its subject.
func (s *Service) Refresh(raw string) (string, uint, error) {
	userID, err := s.parse(raw, TypeRefresh, s.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	access, err := s.sign(userID, TypeAccess, s.AccessTTL, s.AccessSecret)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}
	return access, userID, nil
}
