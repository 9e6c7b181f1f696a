package models

import "time"

// Observation заметка администратора. TargetUserID == nil означает рассылку всем пользователям.
type Observation struct {
	ID           int                   `json:"id"`
	Content      string                `json:"content"`
	AuthorID     string                `json:"authorId"`
	Author       UserRef               `json:"author"`
	TargetUserID *string               `json:"targetUserId"`
	TargetUser   *UserRef              `json:"targetUser,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Responses    []ObservationResponse `json:"responses"`
}

// VisibleTo сообщает, может ли пользователь видеть наблюдение.
func (o *Observation) VisibleTo(user *User) bool {
	if user.IsAdmin() || o.TargetUserID == nil {
		return true
	}
	return *o.TargetUserID == user.ID
}

// ObservationResponse ответ на наблюдение. Ответы только добавляются.
type ObservationResponse struct {
	ID            int       `json:"id"`
	Content       string    `json:"content"`
	AuthorID      string    `json:"authorId"`
	Author        UserRef   `json:"author"`
	ObservationID int       `json:"observationId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ObservationFilter параметры выборки наблюдений.
type ObservationFilter struct {
	// ViewerID ограничивает выборку наблюдениями для этого пользователя и общими.
	ViewerID *string
	// TargetUserID фильтр администратора по адресату.
	TargetUserID *string
}

// DummyObservation тело запроса на создание наблюдения.
type DummyObservation struct {
	Content      string  `json:"content" validate:"required"`
	TargetUserID *string `json:"targetUserId" validate:"omitempty,uuid"`
}

// DummyObservationUpdate тело запроса на редактирование наблюдения.
type DummyObservationUpdate struct {
	Content string `json:"content" validate:"required"`
}

// DummyResponse тело запроса на ответ.
type DummyResponse struct {
	ObservationID int    `json:"observationId" validate:"required,gt=0"`
	Content       string `json:"content" validate:"required"`
}
