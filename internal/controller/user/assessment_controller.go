package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/dto"
	"github.com/trooth-app/assessment-api/internal/service"
)

type AssessmentController struct {
	coordinator   service.SubmissionCoordinator
	statusTracker service.StatusTracker
}

func NewAssessmentController(coordinator service.SubmissionCoordinator, statusTracker service.StatusTracker) *AssessmentController {
	return &AssessmentController{
		coordinator:   coordinator,
		statusTracker: statusTracker,
	}
}

// SubmitAssessment godoc
// @Summary Submit a finalized answer set
// @Description Accepts a submission, computes baseline scores synchronously and schedules AI enrichment in the background. Returns immediately with status=processing and baseline scores populated.
// @Tags Assessments
// @Accept json
// @Produce json
// @Param submission body dto.SubmitAssessmentDTO true "Subject, template and answers keyed by question ID"
// @Success 202 {object} dto.SubmissionAcceptedDTO "Submission accepted; enrichment in progress"
// @Failure 400 {object} dto.ErrorResponse "Malformed submission or unresolvable template"
// @Router /assessments [post]
func (c *AssessmentController) SubmitAssessment(ctx *gin.Context) {
	var req dto.SubmitAssessmentDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitAssessment: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if len(req.Answers) == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Submission must contain at least one answer."})
		return
	}

	resp, err := c.coordinator.Submit(req)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) || errors.Is(err, service.ErrNoValidAnswers) {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Str("subjectID", req.SubjectID).Msg("SubmitAssessment: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to submit assessment", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusAccepted, resp)
}

// GetRecordStatus godoc
// @Summary Poll a record's lifecycle state
// @Description Lightweight polling shape: status, whether scores are attached, and the overall score when present.
// @Tags Assessments
// @Produce json
// @Param record_id path string true "Score record ID"
// @Success 200 {object} dto.RecordStatusDTO
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /assessments/{record_id}/status [get]
func (c *AssessmentController) GetRecordStatus(ctx *gin.Context) {
	recordID := ctx.Param("record_id")
	status, err := c.statusTracker.GetStatus(recordID)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Str("recordID", recordID).Msg("GetRecordStatus: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to load record status"})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// GetRecord godoc
// @Summary Fetch the full score record
// @Description Complete record including category scores with provenance, top-N ranking, question feedback and the historical trend summary.
// @Tags Assessments
// @Produce json
// @Param record_id path string true "Score record ID"
// @Success 200 {object} dto.ScoreRecordDTO
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /assessments/{record_id} [get]
func (c *AssessmentController) GetRecord(ctx *gin.Context) {
	recordID := ctx.Param("record_id")
	record, err := c.statusTracker.GetRecord(recordID)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Str("recordID", recordID).Msg("GetRecord: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to load record"})
		return
	}
	ctx.JSON(http.StatusOK, record)
}

// ListSubjectRecords godoc
// @Summary List a subject's score records, newest first
// @Tags Assessments
// @Produce json
// @Param subject_id path string true "Subject ID"
// @Param template_id query string false "Filter by template"
// @Param limit query int false "Max records (default 20, max 100)"
// @Success 200 {array} dto.ScoreRecordSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Router /subjects/{subject_id}/assessments [get]
func (c *AssessmentController) ListSubjectRecords(ctx *gin.Context) {
	subjectID := ctx.Param("subject_id")
	templateID := ctx.Query("template_id")

	limit := 20
	if limitStr := ctx.Query("limit"); limitStr != "" {
		val, err := strconv.Atoi(limitStr)
		if err != nil || val <= 0 || val > 100 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "limit must be between 1 and 100"})
			return
		}
		limit = val
	}

	records, err := c.statusTracker.ListBySubject(subjectID, templateID, limit)
	if err != nil {
		log.Error().Err(err).Str("subjectID", subjectID).Msg("ListSubjectRecords: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list records"})
		return
	}
	ctx.JSON(http.StatusOK, records)
}
