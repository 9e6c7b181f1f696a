// Package password реализует хеширование и проверку паролей для локального входа.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает bcrypt-хеш с введённым паролем.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength минимальная длина пароля, который можно сохранить.
const MinLength = 8

// ErrTooShort возвращается для паролей короче MinLength.
var ErrTooShort = errors.New("password is too short")

// ErrMismatch возвращается, если пароль не соответствует хэшу.
var ErrMismatch = errors.New("password mismatch")

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) < MinLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooShort)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
// Пустой хэш (пользователь без пароля) всегда даёт ErrMismatch.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if originalHash == "" {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
