package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/dto"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
)

// AdminTemplateService seeds assessment templates. Template authoring
// proper lives in an external system; this is the minimal write path the
// pipeline needs for provisioning and tests.
type AdminTemplateService interface {
	CreateTemplate(req dto.TemplateCreateDTO) (*dto.TemplateResponseDTO, error)
	GetTemplate(id string) (*dto.TemplateResponseDTO, error)
}

type adminTemplateService struct {
	templateRepo repository.TemplateRepository
}

func NewAdminTemplateService(templateRepo repository.TemplateRepository) AdminTemplateService {
	return &adminTemplateService{templateRepo: templateRepo}
}

func (s *adminTemplateService) CreateTemplate(req dto.TemplateCreateDTO) (*dto.TemplateResponseDTO, error) {
	version := req.Version
	if version < 1 {
		version = 1
	}
	template := model.AssessmentTemplate{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Version:     version,
	}
	for _, q := range req.Questions {
		if q.Type == model.QuestionTypeMultipleChoice && len(q.Options) == 0 {
			return nil, fmt.Errorf("multiple_choice question %q requires options", q.Text)
		}
		question := model.Question{
			ID:       uuid.NewString(),
			Text:     q.Text,
			Type:     q.Type,
			Category: q.Category,
			Order:    q.Order,
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, model.QuestionOption{
				ID:        uuid.NewString(),
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
			})
		}
		template.Questions = append(template.Questions, question)
	}

	if err := s.templateRepo.Create(&template); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateTemplate: failed to persist template")
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return templateToDTO(&template), nil
}

func (s *adminTemplateService) GetTemplate(id string) (*dto.TemplateResponseDTO, error) {
	template, err := s.templateRepo.FindByIDWithQuestions(id)
	if err != nil {
		return nil, fmt.Errorf("template not found with ID %s: %w", id, err)
	}
	return templateToDTO(template), nil
}

func templateToDTO(template *model.AssessmentTemplate) *dto.TemplateResponseDTO {
	var out dto.TemplateResponseDTO
	if err := copier.Copy(&out, template); err != nil {
		log.Error().Err(err).Str("templateID", template.ID).Msg("Failed to copy template to DTO")
	}
	return &out
}
