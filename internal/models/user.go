// Package models содержит доменные структуры портала инкубатора:
// пользователей, метрики, наблюдения, регистрации проектов и загруженные файлы.
// Структуры используются в бизнес‑логике, хранилище и JSON‑ответах.
package models

import "time"

// Роли пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Статусы учётной записи.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// User представляет пользователя портала.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Role         string    `json:"role"`   // user или admin
	Status       string    `json:"status"` // active или blocked
	PasswordHash string    `json:"-"`      // Хэш пароля для локального входа, пустой у OAuth пользователей
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin возвращает true для роли admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBlocked возвращает true для заблокированной учётной записи.
func (u *User) IsBlocked() bool {
	return u.Status == StatusBlocked
}

// UserRef краткие данные пользователя во вложенных ответах.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Identity данные, полученные от провайдера OAuth при входе.
type Identity struct {
	Email string
	Name  string
	Image string
}

// UserSummary строка списка пользователей в панели администратора.
type UserSummary struct {
	User
	ObservationsCount int `json:"observationsCount"`
	MetricsCount      int `json:"metricsCount"`
}
