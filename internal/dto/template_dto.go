package dto

import "time"

// OptionCreateDTO is used within QuestionCreateDTO for template seeding.
type OptionCreateDTO struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionCreateDTO struct {
	Text     string            `json:"text" binding:"required"`
	Type     string            `json:"type" binding:"required,oneof=multiple_choice open_ended"`
	Category string            `json:"category" binding:"required"`
	Order    int               `json:"order" binding:"required,min=1"`
	Options  []OptionCreateDTO `json:"options" binding:"omitempty,dive"`
}

// TemplateCreateDTO is for seeding an assessment template with all its
// questions in one request.
type TemplateCreateDTO struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description,omitempty"`
	Version     int                 `json:"version"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type QuestionResponseDTO struct {
	ID       string              `json:"id"`
	Text     string              `json:"text"`
	Type     string              `json:"type"`
	Category string              `json:"category"`
	Order    int                 `json:"order"`
	Options  []OptionResponseDTO `json:"options,omitempty"`
}

type OptionResponseDTO struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type TemplateResponseDTO struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Version     int                   `json:"version"`
	Questions   []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
