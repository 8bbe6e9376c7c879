package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
)

func TestResolveDaySlotWeek(t *testing.T) {
	// 2024-03-04 is a Monday.
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 6; offset++ {
		date := start.AddDate(0, 0, offset)
		slot, err := ResolveDaySlot(date)
		require.NoError(t, err, date.Format(DateLayout))
		assert.Equal(t, DaySlot(offset), slot)
		assert.Equal(t, int(date.Weekday())-1, int(slot))
		assert.Equal(t, date.Weekday(), slot.Weekday())
	}
}

func TestResolveDaySlotSunday(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for week := 0; week < 8; week++ {
		_, err := ResolveDaySlot(sunday.AddDate(0, 0, 7*week))
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrUnschedulableDay.Code, appErrors.FromError(err).Code)
	}
}

func TestDaySlotString(t *testing.T) {
	assert.Equal(t, "MONDAY", Monday.String())
	assert.Equal(t, "SATURDAY", Saturday.String())
	assert.Equal(t, "DaySlot(7)", DaySlot(7).String())
	assert.False(t, DaySlot(-1).Valid())
}

func TestParseDaySlot(t *testing.T) {
	slot, err := ParseDaySlot("3")
	require.NoError(t, err)
	assert.Equal(t, Thursday, slot)

	slot, err = ParseDaySlot(" friday ")
	require.NoError(t, err)
	assert.Equal(t, Friday, slot)

	_, err = ParseDaySlot("6")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = ParseDaySlot("sunday")
	assert.Equal(t, appErrors.ErrUnschedulableDay.Code, appErrors.FromError(err).Code)

	_, err = ParseDaySlot("someday")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDate("04/03/2024")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
