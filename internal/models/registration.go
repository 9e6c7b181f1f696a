package models

import (
	"encoding/json"
	"time"
)

// Статусы заявки.
const (
	RegistrationInProgress = "in_progress"
	RegistrationPending    = "pending"
	RegistrationApproved   = "approved"
	RegistrationRejected   = "rejected"
)

// Действия администратора над заявкой.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Шаги мастера регистрации.
const (
	FirstStep = 1
	LastStep  = 4
)

// ProjectData поля проекта, собираемые мастером регистрации.
type ProjectData struct {
	ProgramID        string `json:"programId"`
	ProjectName      string `json:"projectName"`
	Category         string `json:"category"`
	Industry         string `json:"industry"`
	Description      string `json:"description"`
	ProjectOrigin    string `json:"projectOrigin"`
	ProjectStage     string `json:"projectStage"`
	ProblemDesc      string `json:"problemDescription"`
	OpportunityValue string `json:"opportunityValue"`
	YouTubeURL       string `json:"youtubeUrl"`
	Phone            string `json:"phone"`
}

// SubmittedProjectData поля, обязательные для финальной отправки.
type SubmittedProjectData struct {
	ProgramID   string `validate:"required"`
	ProjectName string `validate:"required"`
	Category    string `validate:"required"`
	Industry    string `validate:"required"`
	Description string `validate:"required"`
}

// Required возвращает проекцию для валидации обязательных полей.
func (p ProjectData) Required() SubmittedProjectData {
	return SubmittedProjectData{
		ProgramID:   p.ProgramID,
		ProjectName: p.ProjectName,
		Category:    p.Category,
		Industry:    p.Industry,
		Description: p.Description,
	}
}

// DecodeProjectData принимает как вложенный объект {"projectData": {...}},
// так и плоский набор полей на верхнем уровне.
func DecodeProjectData(body []byte) (ProjectData, error) {
	var nested struct {
		ProjectData *ProjectData `json:"projectData"`
	}
	if err := json.Unmarshal(body, &nested); err != nil {
		return ProjectData{}, err
	}
	if nested.ProjectData != nil {
		return *nested.ProjectData, nil
	}
	var flat ProjectData
	if err := json.Unmarshal(body, &flat); err != nil {
		return ProjectData{}, err
	}
	return flat, nil
}

// IncompleteRegistration черновик заявки, сохраняемый автосохранением.
type IncompleteRegistration struct {
	ID             int         `json:"id"`
	UserEmail      string      `json:"userEmail"`
	ProjectData    ProjectData `json:"projectData"`
	CurrentStep    int         `json:"currentStep"`
	Status         string      `json:"status"`
	YouTubeVideoID string      `json:"youtubeVideoId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Registration отправленная заявка на рассмотрении администратора.
type Registration struct {
	ID             int         `json:"id"`
	UserEmail      string      `json:"userEmail"`
	ProjectData    ProjectData `json:"projectData"`
	Status         string      `json:"status"`
	ReviewedBy     *string     `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time  `json:"reviewedAt,omitempty"`
	YouTubeVideoID string      `json:"youtubeVideoId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// RegistrationList заявки и их количество по статусам.
type RegistrationList struct {
	Registrations []*Registration `json:"registrations"`
	Counts        map[string]int  `json:"counts"`
}

// DummyProgress тело запроса автосохранения.
type DummyProgress struct {
	ProjectData ProjectData `json:"projectData"`
	CurrentStep int         `json:"currentStep" validate:"required,min=1,max=4"`
}

// DummyRegistrationAction тело запроса решения по заявке.
type DummyRegistrationAction struct {
	ID     int    `json:"id" validate:"required,gt=0"`
	Action string `json:"action" validate:"required,oneof=approve reject"`
}
