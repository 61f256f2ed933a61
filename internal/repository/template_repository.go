package repository

import (
	"github.com/trooth-app/assessment-api/internal/model"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(template *model.AssessmentTemplate) error
	FindByID(id string) (*model.AssessmentTemplate, error)
	FindByIDWithQuestions(id string) (*model.AssessmentTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *model.AssessmentTemplate) error {
	// GORM creates the associated questions and options in one go.
	return r.db.Create(template).Error
}

func (r *templateRepository) FindByID(id string) (*model.AssessmentTemplate, error) {
	var template model.AssessmentTemplate
	if err := r.db.First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindByIDWithQuestions(id string) (*model.AssessmentTemplate, error) {
	var template model.AssessmentTemplate
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_template ASC")
		}).
		Preload("Questions.Options").
		First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}
