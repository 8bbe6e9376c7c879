package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-proxy-api/internal/models"
)

const scheduleSlotColumns = "id, teacher_id, day_slot, period_id, class_id, subject_id, created_at, updated_at"

// ScheduleSlotRepository is a read-only view over the weekly timetable.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository constructs a ScheduleSlotRepository.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

// ListByDayPeriod returns every slot taught at the given day and period.
func (r *ScheduleSlotRepository) ListByDayPeriod(ctx context.Context, day models.DaySlot, periodID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE day_slot = $1 AND period_id = $2", scheduleSlotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, int(day), periodID); err != nil {
		return nil, fmt.Errorf("list schedule slots by period: %w", err)
	}
	return slots, nil
}

// ListByTeacherDay returns a teacher's timetable for one day, ordered by period.
func (r *ScheduleSlotRepository) ListByTeacherDay(ctx context.Context, teacherID string, day models.DaySlot) ([]models.ScheduleSlotDetail, error) {
	const query = `
SELECT
	ss.id, ss.teacher_id, ss.day_slot, ss.period_id, ss.class_id, ss.subject_id, ss.created_at, ss.updated_at,
	p.ordinal AS period_ordinal,
	p.kind AS period_kind,
	to_char(p.start_time, 'HH24:MI') AS start_time,
	to_char(p.end_time, 'HH24:MI') AS end_time,
	c.name AS class_name,
	s.name AS subject_name
FROM schedule_slots ss
JOIN periods p ON p.id = ss.period_id
JOIN classes c ON c.id = ss.class_id
JOIN subjects s ON s.id = ss.subject_id
WHERE ss.teacher_id = $1 AND ss.day_slot = $2
ORDER BY p.ordinal ASC`
	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, teacherID, int(day)); err != nil {
		return nil, fmt.Errorf("list teacher schedule: %w", err)
	}
	return slots, nil
}

// CountByDay counts regular classes per teacher on a day. Teachers without classes are omitted.
func (r *ScheduleSlotRepository) CountByDay(ctx context.Context, day models.DaySlot, teacherIDs []string) ([]models.TeacherLoad, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT teacher_id, COUNT(*) AS total FROM schedule_slots WHERE day_slot = $1 AND teacher_id = ANY($2) GROUP BY teacher_id`
	var loads []models.TeacherLoad
	if err := r.db.SelectContext(ctx, &loads, query, int(day), pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("count schedule slots: %w", err)
	}
	return loads, nil
}

func findScheduleSlot(ctx context.Context, q sqlx.QueryerContext, teacherID string, day models.DaySlot, periodID string) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE teacher_id = $1 AND day_slot = $2 AND period_id = $3", scheduleSlotColumns)
	var slot models.ScheduleSlot
	if err := sqlx.GetContext(ctx, q, &slot, query, teacherID, int(day), periodID); err != nil {
		return nil, err
	}
	return &slot, nil
}
