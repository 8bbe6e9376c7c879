package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-proxy-api/internal/models"
)

const proxyColumns = "id, proxy_date, absent_teacher_id, period_id, class_id, subject_id, substitute_teacher_id, status, remarks, created_by, created_at"

// pgUniqueViolation is the SQLSTATE raised when a unique index rejects a row.
const pgUniqueViolation = "23505"

// Unique constraints guarding proxy_assignments, see migrations/00004_proxy_assignments.sql.
const (
	ProxyClassConstraint      = "proxy_assignments_class_uniq"
	ProxySubstituteConstraint = "proxy_assignments_substitute_uniq"
)

// ErrProxyConflict is returned by InsertProxy when a unique index on proxy_assignments rejects the row.
var ErrProxyConflict = errors.New("proxy assignment conflicts with an existing row")

// ProxyConflictError names the unique constraint that rejected an insert. It matches ErrProxyConflict.
type ProxyConflictError struct {
	Constraint string
}

func (e *ProxyConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProxyConflict.Error(), e.Constraint)
}

// Is reports whether target is ErrProxyConflict.
func (e *ProxyConflictError) Is(target error) bool {
	return target == ErrProxyConflict
}

// SlotLockKey is the advisory lock key for one (date, period).
func SlotLockKey(date time.Time, periodID string) string {
	return fmt.Sprintf("proxy:%s:%s", date.Format(models.DateLayout), periodID)
}

// TeacherLockKey is the advisory lock key for one teacher's day.
func TeacherLockKey(date time.Time, teacherID string) string {
	return fmt.Sprintf("proxy:teacher:%s:%s", date.Format(models.DateLayout), teacherID)
}

// ProxyTxStore exposes the reads and writes a proxy commit performs inside one transaction.
type ProxyTxStore interface {
	Lock(ctx context.Context, key string) error
	UpsertAbsence(ctx context.Context, absence *models.Absence) error
	FindAbsence(ctx context.Context, teacherID string, date time.Time) (*models.Absence, error)
	FindPeriod(ctx context.Context, id string) (*models.Period, error)
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	FindScheduleSlot(ctx context.Context, teacherID string, day models.DaySlot, periodID string) (*models.ScheduleSlot, error)
	FindProxyBySubstitute(ctx context.Context, date time.Time, periodID, teacherID string) (*models.ProxyAssignment, error)
	FindProxyByClass(ctx context.Context, date time.Time, periodID, classID string) (*models.ProxyAssignment, error)
	ListProxiesBySubstitute(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error)
	InsertProxy(ctx context.Context, proxy *models.ProxyAssignment) error
}

// ProxyRepository manages committed proxy assignments.
type ProxyRepository struct {
	db *sqlx.DB
}

// NewProxyRepository constructs a ProxyRepository.
func NewProxyRepository(db *sqlx.DB) *ProxyRepository {
	return &ProxyRepository{db: db}
}

// WithinTx runs fn inside a READ COMMITTED transaction. Any error or panic rolls the transaction back.
func (r *ProxyRepository) WithinTx(ctx context.Context, fn func(store ProxyTxStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin proxy transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&proxyTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit proxy transaction: %w", err)
	}
	return nil
}

// List returns assignments for a date with display names, ordered by period then class.
func (r *ProxyRepository) List(ctx context.Context, filter models.ProxyFilter) ([]models.ProxyAssignmentDetail, error) {
	conditions := []string{"pa.proxy_date = $1"}
	args := []interface{}{filter.Date}

	if filter.AbsentTeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("pa.absent_teacher_id = $%d", len(args)+1))
		args = append(args, filter.AbsentTeacherID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("pa.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.SubstituteTeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("pa.substitute_teacher_id = $%d", len(args)+1))
		args = append(args, filter.SubstituteTeacherID)
	}

	query := `
SELECT
	pa.id, pa.proxy_date, pa.absent_teacher_id, pa.period_id, pa.class_id, pa.subject_id,
	pa.substitute_teacher_id, pa.status, pa.remarks, pa.created_by, pa.created_at,
	p.ordinal AS period_ordinal,
	absent.full_name AS absent_teacher_name,
	substitute.full_name AS substitute_teacher_name,
	c.name AS class_name,
	s.name AS subject_name
FROM proxy_assignments pa
JOIN periods p ON p.id = pa.period_id
JOIN teachers absent ON absent.id = pa.absent_teacher_id
JOIN teachers substitute ON substitute.id = pa.substitute_teacher_id
JOIN classes c ON c.id = pa.class_id
JOIN subjects s ON s.id = pa.subject_id
WHERE ` + strings.Join(conditions, " AND ") + `
ORDER BY p.ordinal ASC, c.name ASC`

	var items []models.ProxyAssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list proxy assignments: %w", err)
	}
	return items, nil
}

// ListByDatePeriod returns the assignments already committed for a (date, period).
func (r *ProxyRepository) ListByDatePeriod(ctx context.Context, date time.Time, periodID string) ([]models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE proxy_date = $1 AND period_id = $2", proxyColumns)
	var items []models.ProxyAssignment
	if err := r.db.SelectContext(ctx, &items, query, date, periodID); err != nil {
		return nil, fmt.Errorf("list proxy assignments by period: %w", err)
	}
	return items, nil
}

// ListByAbsentTeacher returns assignments covering an absent teacher on a date.
func (r *ProxyRepository) ListByAbsentTeacher(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE proxy_date = $1 AND absent_teacher_id = $2", proxyColumns)
	var items []models.ProxyAssignment
	if err := r.db.SelectContext(ctx, &items, query, date, teacherID); err != nil {
		return nil, fmt.Errorf("list proxy assignments by absent teacher: %w", err)
	}
	return items, nil
}

// CountByDate counts substitutions per substitute teacher on a date across all periods.
func (r *ProxyRepository) CountByDate(ctx context.Context, date time.Time, teacherIDs []string) ([]models.TeacherLoad, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT substitute_teacher_id AS teacher_id, COUNT(*) AS total FROM proxy_assignments WHERE proxy_date = $1 AND substitute_teacher_id = ANY($2) GROUP BY substitute_teacher_id`
	var loads []models.TeacherLoad
	if err := r.db.SelectContext(ctx, &loads, query, date, pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("count proxy assignments: %w", err)
	}
	return loads, nil
}

// FindByID fetches an assignment by ID.
func (r *ProxyRepository) FindByID(ctx context.Context, id string) (*models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE id = $1", proxyColumns)
	var item models.ProxyAssignment
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes one assignment. It returns sql.ErrNoRows when nothing matched.
func (r *ProxyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proxy_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete proxy assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete proxy assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type proxyTx struct {
	tx *sqlx.Tx
}

// Lock holds a transaction-scoped advisory lock on key until the transaction ends.
func (s *proxyTx) Lock(ctx context.Context, key string) error {
	if _, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	return nil
}

func (s *proxyTx) UpsertAbsence(ctx context.Context, absence *models.Absence) error {
	return upsertAbsence(ctx, s.tx, absence)
}

func (s *proxyTx) FindAbsence(ctx context.Context, teacherID string, date time.Time) (*models.Absence, error) {
	return findAbsence(ctx, s.tx, teacherID, date)
}

func (s *proxyTx) FindPeriod(ctx context.Context, id string) (*models.Period, error) {
	return findPeriod(ctx, s.tx, id)
}

func (s *proxyTx) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	return findTeacher(ctx, s.tx, id)
}

func (s *proxyTx) FindScheduleSlot(ctx context.Context, teacherID string, day models.DaySlot, periodID string) (*models.ScheduleSlot, error) {
	return findScheduleSlot(ctx, s.tx, teacherID, day, periodID)
}

func (s *proxyTx) FindProxyBySubstitute(ctx context.Context, date time.Time, periodID, teacherID string) (*models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE proxy_date = $1 AND period_id = $2 AND substitute_teacher_id = $3", proxyColumns)
	var item models.ProxyAssignment
	if err := s.tx.GetContext(ctx, &item, query, date, periodID, teacherID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *proxyTx) FindProxyByClass(ctx context.Context, date time.Time, periodID, classID string) (*models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE proxy_date = $1 AND period_id = $2 AND class_id = $3", proxyColumns)
	var item models.ProxyAssignment
	if err := s.tx.GetContext(ctx, &item, query, date, periodID, classID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *proxyTx) ListProxiesBySubstitute(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM proxy_assignments WHERE proxy_date = $1 AND substitute_teacher_id = $2 ORDER BY period_id ASC", proxyColumns)
	var items []models.ProxyAssignment
	if err := s.tx.SelectContext(ctx, &items, query, date, teacherID); err != nil {
		return nil, fmt.Errorf("list proxies by substitute: %w", err)
	}
	return items, nil
}

func (s *proxyTx) InsertProxy(ctx context.Context, proxy *models.ProxyAssignment) error {
	if proxy.ID == "" {
		proxy.ID = uuid.NewString()
	}
	if proxy.CreatedAt.IsZero() {
		proxy.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO proxy_assignments (id, proxy_date, absent_teacher_id, period_id, class_id, subject_id, substitute_teacher_id, status, remarks, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.tx.ExecContext(ctx, query,
		proxy.ID, proxy.Date, proxy.AbsentTeacherID, proxy.PeriodID, proxy.ClassID, proxy.SubjectID,
		proxy.SubstituteTeacherID, string(proxy.Status), proxy.Remarks, proxy.CreatedBy, proxy.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return &ProxyConflictError{Constraint: pqErr.Constraint}
		}
		return fmt.Errorf("insert proxy assignment: %w", err)
	}
	return nil
}
