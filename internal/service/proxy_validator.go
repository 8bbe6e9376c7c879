package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/internal/repository"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
)

// assignmentValidator re-checks each proposed substitution against the rows
// visible inside the commit transaction.
type assignmentValidator struct {
	store           repository.ProxyTxStore
	date            time.Time
	day             models.DaySlot
	absentTeacherID string
	status          models.ProxyStatus
	createdBy       string
}

// check returns the row to insert for choice, or the reason it cannot be committed.
func (v *assignmentValidator) check(ctx context.Context, index int, choice dto.ProxyChoice) (*models.ProxyAssignment, error) {
	period, err := v.store.FindPeriod(ctx, choice.PeriodID)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("period %s not found", choice.PeriodID))
	}
	if !period.AcceptsSubstitutes() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period %s is %s and takes no substitutes", period.Name, period.Kind))
	}

	slot, err := v.store.FindScheduleSlot(ctx, v.absentTeacherID, v.day, choice.PeriodID)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("absent teacher has no class in period %s on %s", period.Name, v.day))
	}
	if slot.ClassID != choice.ClassID || slot.SubjectID != choice.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("choice %d does not match the absent teacher's class and subject for period %s", index, period.Name))
	}

	substitute, err := v.store.FindTeacher(ctx, choice.SubstituteTeacherID)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("teacher %s not found", choice.SubstituteTeacherID))
	}
	if !substitute.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s is inactive", substitute.FullName))
	}

	conflict := models.ProxyConflict{
		ChoiceIndex:         index,
		Date:                v.date.Format(models.DateLayout),
		PeriodID:            choice.PeriodID,
		ClassID:             slot.ClassID,
		SubstituteTeacherID: substitute.ID,
	}

	if _, err := v.store.FindAbsence(ctx, substitute.ID, v.date); err == nil {
		conflict.Reason = models.ConflictSubstituteAbsent
		return nil, substituteUnavailable(conflict, fmt.Sprintf("%s is absent on %s", substitute.FullName, conflict.Date))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if busy, err := v.store.FindScheduleSlot(ctx, substitute.ID, v.day, choice.PeriodID); err == nil {
		conflict.Reason = models.ConflictRegularClass
		conflict.ConflictingClassID = busy.ClassID
		return nil, substituteUnavailable(conflict, fmt.Sprintf("%s teaches class %s in period %s", substitute.FullName, busy.ClassID, period.Name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if existing, err := v.store.FindProxyBySubstitute(ctx, v.date, choice.PeriodID, substitute.ID); err == nil {
		conflict.Reason = models.ConflictAlreadySubstituting
		conflict.ConflictingClassID = existing.ClassID
		return nil, substituteUnavailable(conflict, fmt.Sprintf("%s already covers class %s in period %s", substitute.FullName, existing.ClassID, period.Name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if existing, err := v.store.FindProxyByClass(ctx, v.date, choice.PeriodID, slot.ClassID); err == nil {
		conflict.Reason = models.ConflictClassCovered
		conflict.ConflictingClassID = existing.ClassID
		return nil, substituteUnavailable(conflict, fmt.Sprintf("class %s already has a substitute in period %s", slot.ClassID, period.Name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return &models.ProxyAssignment{
		Date:                v.date,
		AbsentTeacherID:     v.absentTeacherID,
		PeriodID:            choice.PeriodID,
		ClassID:             slot.ClassID,
		SubjectID:           slot.SubjectID,
		SubstituteTeacherID: substitute.ID,
		Status:              v.status,
		Remarks:             choice.Remarks,
		CreatedBy:           v.createdBy,
	}, nil
}

// checkBatch rejects choices that collide with each other before any storage round trip.
// The absent teacher teaches one class per period, so a repeated period means a class covered twice.
func checkBatch(absentTeacherID string, choices []dto.ProxyChoice) error {
	periods := make(map[string]int, len(choices))
	for i, choice := range choices {
		if choice.SubstituteTeacherID == absentTeacherID {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("choice %d assigns the absent teacher to their own class", i))
		}
		if first, ok := periods[choice.PeriodID]; ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("choices %d and %d cover the same period", first, i))
		}
		periods[choice.PeriodID] = i
	}
	return nil
}

func substituteUnavailable(conflict models.ProxyConflict, message string) error {
	cause := &models.SubstituteUnavailableError{Message: message, Conflict: conflict}
	err := appErrors.Wrap(cause, appErrors.ErrSubstituteUnavailable.Code, appErrors.ErrSubstituteUnavailable.Status, message)
	return appErrors.WithDetails(err, conflict)
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return err
}
