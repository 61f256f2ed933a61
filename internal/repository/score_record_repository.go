package repository

import (
	"time"

	"github.com/trooth-app/assessment-api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoreRecordRepository interface {
	Create(record *model.ScoreRecord) error
	FindByID(id string) (*model.ScoreRecord, error)
	// FindLatestTerminalBefore returns the most recently created
	// done-or-error record for the subject+template pair created strictly
	// before the given instant, or gorm.ErrRecordNotFound.
	FindLatestTerminalBefore(subjectID, templateID string, before time.Time, excludeID string) (*model.ScoreRecord, error)
	FindAllBySubjectAndTemplate(subjectID, templateID string, limit int) ([]model.ScoreRecord, error)
	// SetHistory writes previous_record_id and the cached trend summary.
	// It is only ever called once per record.
	SetHistory(id string, previousID string, summary *model.HistoricalSummary) error
	// Finalize applies the terminal transition as a single atomic update,
	// guarded on status so a record can never leave "processing" twice.
	Finalize(id string, status string, scores *model.ScorePayload, summary *model.HistoricalSummary) (bool, error)
}

type scoreRecordRepository struct {
	db *gorm.DB
}

func NewScoreRecordRepository(db *gorm.DB) ScoreRecordRepository {
	return &scoreRecordRepository{db: db}
}

func (r *scoreRecordRepository) Create(record *model.ScoreRecord) error {
	return r.db.Create(record).Error
}

func (r *scoreRecordRepository) FindByID(id string) (*model.ScoreRecord, error) {
	var record model.ScoreRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *scoreRecordRepository) FindLatestTerminalBefore(subjectID, templateID string, before time.Time, excludeID string) (*model.ScoreRecord, error) {
	var record model.ScoreRecord
	err := r.db.
		Where("subject_id = ? AND template_id = ?", subjectID, templateID).
		Where("status IN ?", []string{model.StatusDone, model.StatusError}).
		Where("created_at < ?", before).
		Where("id <> ?", excludeID).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *scoreRecordRepository) FindAllBySubjectAndTemplate(subjectID, templateID string, limit int) ([]model.ScoreRecord, error) {
	var records []model.ScoreRecord
	query := r.db.Where("subject_id = ?", subjectID)
	if templateID != "" {
		query = query.Where("template_id = ?", templateID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC, id DESC").Find(&records).Error
	return records, err
}

func (r *scoreRecordRepository) SetHistory(id string, previousID string, summary *model.HistoricalSummary) error {
	updates := map[string]interface{}{
		"previous_record_id": previousID,
	}
	if summary != nil {
		blob := datatypes.NewJSONType(*summary)
		updates["historical_summary"] = &blob
	}
	return r.db.Model(&model.ScoreRecord{}).Where("id = ?", id).Updates(updates).Error
}

func (r *scoreRecordRepository) Finalize(id string, status string, scores *model.ScorePayload, summary *model.HistoricalSummary) (bool, error) {
	updates := map[string]interface{}{
		"status": status,
	}
	if scores != nil {
		updates["scores"] = datatypes.NewJSONType(*scores)
	}
	if summary != nil {
		blob := datatypes.NewJSONType(*summary)
		updates["historical_summary"] = &blob
	}
	res := r.db.Model(&model.ScoreRecord{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
