package model

import (
	"time"

	"gorm.io/gorm"
)

// Question types understood by the pipeline.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeOpenEnded      = "open_ended"
)

// AssessmentTemplate is the read side of the externally authored template
// store: enough structure to resolve a submission's questions, categories
// and option correctness.
type AssessmentTemplate struct {
	ID          string         `gorm:"primarykey" json:"id"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty"`
	Version     int            `json:"version" gorm:"not null;default:1"`
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:TemplateID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Question struct {
	ID         string           `gorm:"primarykey" json:"id"`
	TemplateID string           `json:"template_id" gorm:"not null;index"`
	Text       string           `json:"text" gorm:"type:text;not null"`
	Type       string           `json:"type" gorm:"not null"` // multiple_choice, open_ended
	Category   string           `json:"category" gorm:"not null"`
	Order      int              `json:"order" gorm:"column:order_in_template;not null"`
	Options    []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

type QuestionOption struct {
	ID         string         `gorm:"primarykey" json:"id"`
	QuestionID string         `json:"question_id" gorm:"not null;index"`
	Text       string         `json:"text" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct" gorm:"not null;default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// ResolveOption matches a raw answer against the question's options, by
// option ID first and by option text as a legacy fallback. Matching by
// identity rather than free-text keeps grading robust when option wording
// changes.
func (q *Question) ResolveOption(rawAnswer string) *QuestionOption {
	for i := range q.Options {
		if q.Options[i].ID == rawAnswer {
			return &q.Options[i]
		}
	}
	for i := range q.Options {
		if equalFoldTrim(q.Options[i].Text, rawAnswer) {
			return &q.Options[i]
		}
	}
	return nil
}
