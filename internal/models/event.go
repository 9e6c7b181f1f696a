package models

// Ключи маршрутизации событий в exchange notifications.
const (
	EventObservationCreated   = "observation.created"
	EventRegistrationReviewed = "registration.reviewed"
)

// ObservationCreatedEvent публикуется после создания наблюдения.
type ObservationCreatedEvent struct {
	ObservationID int     `json:"observationId"`
	AuthorName    string  `json:"authorName"`
	TargetUserID  *string `json:"targetUserId"`
	Content       string  `json:"content"`
}

// RegistrationReviewedEvent публикуется после решения администратора по заявке.
type RegistrationReviewedEvent struct {
	RegistrationID int    `json:"registrationId"`
	UserEmail      string `json:"userEmail"`
	ProjectName    string `json:"projectName"`
	Status         string `json:"status"`
}
