package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-proxy-api/internal/models"
)

const absenceColumns = "id, teacher_id, absence_date, status, reason, created_by, created_at, updated_at"

// AbsenceRepository reads absence records. Writes happen inside the proxy commit transaction.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an AbsenceRepository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListByDate returns every absence recorded for the date.
func (r *AbsenceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceDetail, error) {
	const query = `
SELECT
	a.id, a.teacher_id, a.absence_date, a.status, a.reason, a.created_by, a.created_at, a.updated_at,
	t.full_name AS teacher_name
FROM absences a
JOIN teachers t ON t.id = a.teacher_id
WHERE a.absence_date = $1
ORDER BY t.full_name ASC`
	var absences []models.AbsenceDetail
	if err := r.db.SelectContext(ctx, &absences, query, date); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

func findAbsence(ctx context.Context, q sqlx.QueryerContext, teacherID string, date time.Time) (*models.Absence, error) {
	query := fmt.Sprintf("SELECT %s FROM absences WHERE teacher_id = $1 AND absence_date = $2", absenceColumns)
	var absence models.Absence
	if err := sqlx.GetContext(ctx, q, &absence, query, teacherID, date); err != nil {
		return nil, err
	}
	return &absence, nil
}

// upsertAbsence keeps one row per (teacher, date); a repeat updates status and reason.
func upsertAbsence(ctx context.Context, q sqlx.QueryerContext, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	absence.CreatedAt = now
	absence.UpdatedAt = now

	const query = `INSERT INTO absences (id, teacher_id, absence_date, status, reason, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (teacher_id, absence_date) DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := q.QueryRowxContext(ctx, query, absence.ID, absence.TeacherID, absence.Date, string(absence.Status), absence.Reason, absence.CreatedBy, absence.CreatedAt, absence.UpdatedAt)
	if err := row.Scan(&absence.ID, &absence.CreatedAt); err != nil {
		return fmt.Errorf("upsert absence: %w", err)
	}
	return nil
}
