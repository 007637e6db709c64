package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли сотрудников. Подающие отчёты жители не аутентифицируются.
const (
	RoleAuthority = "authority"
	RoleLab       = "lab"
)

var ErrUnknownRole = errors.New("неизвестная роль")

func IsKnownRole(role string) bool {
	return role == RoleAuthority || role == RoleLab
}

// TokenManager отвечает за выпуск и проверку JWT.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
	now          func() time.Time
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

// GenerateAccess выпускает access токен для сотрудника с указанной ролью.
func (m *TokenManager) GenerateAccess(subject, role string) (string, time.Time, error) {
	if !IsKnownRole(role) {
		return "", time.Time{}, ErrUnknownRole
	}
	if subject == "" {
		return "", time.Time{}, jwt.ErrTokenInvalidSubject
	}

	now := m.now()
	exp := now.Add(m.accessTTL)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccess извлекает subject и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (string, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid {
		return "", "", jwt.ErrTokenSignatureInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || !IsKnownRole(role) {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	return sub, role, nil
}
