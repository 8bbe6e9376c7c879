package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-proxy-api/internal/models"
)

const periodColumns = "id, ordinal, name, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, kind"

// PeriodRepository reads the period catalogue.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns every period ordered by ordinal.
func (r *PeriodRepository) List(ctx context.Context) ([]models.Period, error) {
	query := fmt.Sprintf("SELECT %s FROM periods ORDER BY ordinal ASC", periodColumns)
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID fetches a period by ID.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	return findPeriod(ctx, r.db, id)
}

func findPeriod(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Period, error) {
	query := fmt.Sprintf("SELECT %s FROM periods WHERE id = $1", periodColumns)
	var period models.Period
	if err := sqlx.GetContext(ctx, q, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}
