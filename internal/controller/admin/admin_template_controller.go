package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/dto"
	"github.com/trooth-app/assessment-api/internal/service"
)

type AdminTemplateController struct {
	adminTemplateService service.AdminTemplateService
}

func NewAdminTemplateController(adminTemplateService service.AdminTemplateService) *AdminTemplateController {
	return &AdminTemplateController{adminTemplateService: adminTemplateService}
}

// CreateTemplate godoc
// @Summary (Admin) Seed an assessment template
// @Description Admin creates an assessment template with its questions, categories and MC options.
// @Tags Admin - Templates
// @Accept json
// @Produce json
// @Param template_data body dto.TemplateCreateDTO true "Template with questions"
// @Success 201 {object} dto.TemplateResponseDTO "Template created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Router /admin/templates [post]
func (c *AdminTemplateController) CreateTemplate(ctx *gin.Context) {
	var req dto.TemplateCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateTemplate: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.adminTemplateService.CreateTemplate(req)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Admin CreateTemplate: Service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create template", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetTemplate godoc
// @Summary (Admin) Get a template with its questions
// @Tags Admin - Templates
// @Produce json
// @Param template_id path string true "Template ID"
// @Success 200 {object} dto.TemplateResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/{template_id} [get]
func (c *AdminTemplateController) GetTemplate(ctx *gin.Context) {
	templateID := ctx.Param("template_id")
	resp, err := c.adminTemplateService.GetTemplate(templateID)
	if err != nil {
		log.Warn().Err(err).Str("templateID", templateID).Msg("Admin GetTemplate: not found")
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
