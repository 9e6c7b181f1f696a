// Package services объявляет ошибки бизнес‑логики, общие для всех сервисов портала.
// Обработчики HTTP сопоставляют их с кодами ответа через errors.Is.
package services

import "errors"

var (
	// ErrNotFound запрошенная запись не существует или не видна пользователю.
	ErrNotFound = errors.New("not found")
	// ErrForbidden действие запрещено для текущего пользователя.
	ErrForbidden = errors.New("forbidden")
	// ErrBlocked учётная запись заблокирована администратором.
	ErrBlocked = errors.New("account is blocked")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidTarget адресат наблюдения не существует.
	ErrInvalidTarget = errors.New("target user does not exist")
	// ErrHasResponses наблюдение нельзя изменить после первого ответа.
	ErrHasResponses = errors.New("observation already has responses")
	// ErrAlreadyReviewed по заявке уже принято решение.
	ErrAlreadyReviewed = errors.New("registration already reviewed")
	// ErrInvalidVideoURL ссылка на YouTube не содержит идентификатор видео.
	ErrInvalidVideoURL = errors.New("invalid youtube url")
	// ErrInvalidInput входные данные не прошли проверку бизнес‑правил.
	ErrInvalidInput = errors.New("invalid input")
)
