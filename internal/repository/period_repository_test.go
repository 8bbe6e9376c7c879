package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-proxy-api/internal/models"
)

func TestPeriodRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	rows := sqlmock.NewRows([]string{"id", "ordinal", "name", "start_time", "end_time", "kind"}).
		AddRow("p1", 1, "Period 1", "07:00", "07:45", "REGULAR").
		AddRow("p2", 2, "Recess", "07:45", "08:00", "RECESS")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, ordinal, name, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, kind FROM periods ORDER BY ordinal ASC")).
		WillReturnRows(rows)

	periods, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, models.PeriodKindRegular, periods[0].Kind)
	assert.False(t, periods[1].AcceptsSubstitutes())
	assert.Equal(t, "07:00", periods[0].StartTime)
	assert.Equal(t, "08:00", periods[1].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindByIDFormatsTimeOfDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	rows := sqlmock.NewRows([]string{"id", "ordinal", "name", "start_time", "end_time", "kind"}).
		AddRow("p1", 1, "Period 1", "07:00", "07:45", "REGULAR")
	mock.ExpectQuery(`to_char\(start_time, 'HH24:MI'\) AS start_time, to_char\(end_time, 'HH24:MI'\) AS end_time, kind FROM periods WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	period, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "07:00", period.StartTime)
	assert.Equal(t, "07:45", period.EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
