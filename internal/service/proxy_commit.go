package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/internal/repository"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
	"github.com/noah-isme/sma-proxy-api/pkg/middleware/requestid"
)

// Commit records the absence and every chosen substitution in one transaction.
// The first choice that fails validation aborts the batch and nothing is persisted.
func (s *ProxyService) Commit(ctx context.Context, actor *models.JWTClaims, req dto.CommitProxiesRequest) ([]models.ProxyAssignment, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	if !actor.CanManageProxies() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may commit substitutions")
	}
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proxy commit payload")
	}
	if len(req.Choices) > s.cfg.MaxBatch {
		s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d choices per commit", s.cfg.MaxBatch))
	}
	date, day, err := parseTeachingDate(req.Date)
	if err != nil {
		s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		return nil, err
	}
	status, err := models.ParseProxyStatus(req.Status)
	if err != nil {
		s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status")
	}
	if err := checkBatch(req.AbsentTeacherID, req.Choices); err != nil {
		s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CommitTimeout)
	defer cancel()

	var created []models.ProxyAssignment
	var absence *models.Absence
	err = s.proxies.WithinTx(ctx, func(store repository.ProxyTxStore) error {
		for _, key := range lockOrder(date, req.AbsentTeacherID, req.Choices) {
			if err := store.Lock(ctx, key); err != nil {
				return err
			}
		}

		if _, err := store.FindTeacher(ctx, req.AbsentTeacherID); err != nil {
			return notFoundOr(err, fmt.Sprintf("teacher %s not found", req.AbsentTeacherID))
		}
		absence = &models.Absence{
			TeacherID: req.AbsentTeacherID,
			Date:      date,
			Status:    status,
			Reason:    req.Reason,
			CreatedBy: actor.UserID,
		}
		if err := store.UpsertAbsence(ctx, absence); err != nil {
			return err
		}
		covering, err := store.ListProxiesBySubstitute(ctx, date, req.AbsentTeacherID)
		if err != nil {
			return err
		}
		if len(covering) > 0 {
			existing := covering[0]
			return substituteUnavailable(models.ProxyConflict{
				ChoiceIndex:         -1,
				Date:                date.Format(models.DateLayout),
				PeriodID:            existing.PeriodID,
				ClassID:             existing.ClassID,
				SubstituteTeacherID: req.AbsentTeacherID,
				ConflictingClassID:  existing.ClassID,
				Reason:              models.ConflictSubstituteAbsent,
			}, fmt.Sprintf("teacher %s already substitutes in period %s and cannot be marked absent", req.AbsentTeacherID, existing.PeriodID))
		}

		checker := &assignmentValidator{
			store:           store,
			date:            date,
			day:             day,
			absentTeacherID: req.AbsentTeacherID,
			status:          status,
			createdBy:       actor.UserID,
		}
		rows := make([]models.ProxyAssignment, 0, len(req.Choices))
		for i, choice := range req.Choices {
			row, err := checker.check(ctx, i, choice)
			if err != nil {
				return err
			}
			rows = append(rows, *row)
		}

		for i := range rows {
			if err := store.InsertProxy(ctx, &rows[i]); err != nil {
				var conflict *repository.ProxyConflictError
				if errors.As(err, &conflict) {
					reason := models.ConflictAlreadySubstituting
					if conflict.Constraint == repository.ProxyClassConstraint {
						reason = models.ConflictClassCovered
					}
					return substituteUnavailable(models.ProxyConflict{
						ChoiceIndex:         i,
						Date:                date.Format(models.DateLayout),
						PeriodID:            rows[i].PeriodID,
						ClassID:             rows[i].ClassID,
						SubstituteTeacherID: rows[i].SubstituteTeacherID,
						Reason:              reason,
					}, "a concurrent commit took this period first")
				}
				return err
			}
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, s.commitFailure(ctx, err)
	}

	s.metrics.RecordProxyCommit(CommitOutcomeCommitted, len(created))
	s.logger.Info("proxy batch committed",
		zap.String("absent_teacher_id", req.AbsentTeacherID),
		zap.String("date", date.Format(models.DateLayout)),
		zap.Int("assignments", len(created)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	newValues, _ := json.Marshal(map[string]interface{}{
		"absence":     absence,
		"assignments": created,
	})
	s.emitAudit(ctx, actor, models.AuditActionProxyCommit, &absence.ID, nil, newValues)
	return created, nil
}

// commitFailure classifies an aborted commit. Domain errors pass through; anything else is a storage fault.
func (s *ProxyService) commitFailure(ctx context.Context, err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		if errors.Is(appErr, appErrors.ErrSubstituteUnavailable) {
			s.metrics.RecordProxyCommit(CommitOutcomeUnavailable, 0)
			s.logger.Info("proxy batch rejected", zap.String("reason", appErr.Message), zap.String("request_id", requestid.FromContext(ctx)))
		} else {
			s.metrics.RecordProxyCommit(CommitOutcomeRejected, 0)
		}
		return appErr
	}
	s.metrics.RecordProxyCommit(CommitOutcomeFailed, 0)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return s.storageFault(ctx, err, "proxy commit timed out")
	}
	return s.storageFault(ctx, err, "failed to commit proxy assignments")
}

// lockOrder returns the distinct advisory lock keys of a batch: one per period and one per
// teacher involved. Keys are sorted so concurrent commits acquire them in the same order.
func lockOrder(date time.Time, absentTeacherID string, choices []dto.ProxyChoice) []string {
	seen := make(map[string]struct{}, 2*len(choices)+1)
	keys := make([]string, 0, 2*len(choices)+1)
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	add(repository.TeacherLockKey(date, absentTeacherID))
	for _, choice := range choices {
		add(repository.SlotLockKey(date, choice.PeriodID))
		add(repository.TeacherLockKey(date, choice.SubstituteTeacherID))
	}
	sort.Strings(keys)
	return keys
}
