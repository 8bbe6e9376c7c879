package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/internal/repository"
	"github.com/noah-isme/sma-proxy-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
	"github.com/noah-isme/sma-proxy-api/pkg/middleware/requestid"
)

const proxyResource = "proxy_assignment"

type proxyTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type proxyPeriodReader interface {
	List(ctx context.Context) ([]models.Period, error)
}

type proxyScheduleReader interface {
	ListByDayPeriod(ctx context.Context, day models.DaySlot, periodID string) ([]models.ScheduleSlot, error)
	ListByTeacherDay(ctx context.Context, teacherID string, day models.DaySlot) ([]models.ScheduleSlotDetail, error)
	CountByDay(ctx context.Context, day models.DaySlot, teacherIDs []string) ([]models.TeacherLoad, error)
}

type proxyAbsenceReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceDetail, error)
}

type proxyStore interface {
	WithinTx(ctx context.Context, fn func(store repository.ProxyTxStore) error) error
	List(ctx context.Context, filter models.ProxyFilter) ([]models.ProxyAssignmentDetail, error)
	ListByDatePeriod(ctx context.Context, date time.Time, periodID string) ([]models.ProxyAssignment, error)
	ListByAbsentTeacher(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error)
	CountByDate(ctx context.Context, date time.Time, teacherIDs []string) ([]models.TeacherLoad, error)
	FindByID(ctx context.Context, id string) (*models.ProxyAssignment, error)
	Delete(ctx context.Context, id string) error
}

type referenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ProxyServiceConfig tunes commit behaviour and reference data caching.
type ProxyServiceConfig struct {
	CommitTimeout time.Duration
	MaxBatch      int
	RosterTTL     time.Duration
}

// ProxyService recommends and commits substitute teachers for absent colleagues.
type ProxyService struct {
	teachers  proxyTeacherReader
	periods   proxyPeriodReader
	schedule  proxyScheduleReader
	absences  proxyAbsenceReader
	proxies   proxyStore
	cache     referenceCache
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ProxyServiceConfig
}

// NewProxyService wires the substitute engine.
func NewProxyService(
	teachers proxyTeacherReader,
	periods proxyPeriodReader,
	schedule proxyScheduleReader,
	absences proxyAbsenceReader,
	proxies proxyStore,
	refCache referenceCache,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ProxyServiceConfig,
) *ProxyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 10 * time.Second
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 16
	}
	return &ProxyService{
		teachers:  teachers,
		periods:   periods,
		schedule:  schedule,
		absences:  absences,
		proxies:   proxies,
		cache:     refCache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// ResolveDaySlot maps a date to its timetable day.
func (s *ProxyService) ResolveDaySlot(rawDate string) (*dto.DaySlotResponse, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}
	day, err := models.ResolveDaySlot(date)
	if err != nil {
		return nil, err
	}
	return &dto.DaySlotResponse{Date: date.Format(models.DateLayout), DaySlot: int(day), Day: day.String()}, nil
}

// AvailableTeachers lists teachers free to cover a period on a date, least loaded first.
func (s *ProxyService) AvailableTeachers(ctx context.Context, query dto.AvailabilityQuery) ([]dto.AvailableTeacher, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	date, day, err := parseTeachingDate(query.Date)
	if err != nil {
		return nil, err
	}
	period, err := s.findPeriod(ctx, query.PeriodID)
	if err != nil {
		return nil, err
	}
	if !period.AcceptsSubstitutes() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period %s is %s and takes no substitutes", period.Name, period.Kind))
	}
	if query.ExcludeTeacherID != "" {
		if _, err := s.findTeacher(ctx, query.ExcludeTeacherID); err != nil {
			return nil, err
		}
	}

	roster, err := s.activeTeachers(ctx)
	if err != nil {
		return nil, err
	}
	absent, err := s.absentTeacherIDs(ctx, date)
	if err != nil {
		return nil, err
	}
	exclude := toSet(query.Exclude)
	if query.ExcludeTeacherID != "" {
		exclude[query.ExcludeTeacherID] = struct{}{}
	}

	candidates, err := s.candidates(ctx, date, day, period.ID, roster, absent, exclude)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, date, day, candidates)
}

// AbsentPeriods lists the regular periods a teacher teaches on the date with any committed proxy.
func (s *ProxyService) AbsentPeriods(ctx context.Context, teacherID, rawDate string) ([]dto.AbsentPeriod, error) {
	date, day, err := parseTeachingDate(rawDate)
	if err != nil {
		return nil, err
	}
	return s.absentPeriods(ctx, teacherID, date, day)
}

// Recommend returns ranked candidates for every period the absent teacher would have taught.
func (s *ProxyService) Recommend(ctx context.Context, teacherID, rawDate string, extraExclude []string) ([]dto.PeriodRecommendation, error) {
	date, day, err := parseTeachingDate(rawDate)
	if err != nil {
		return nil, err
	}
	periods, err := s.absentPeriods(ctx, teacherID, date, day)
	if err != nil {
		return nil, err
	}
	roster, err := s.activeTeachers(ctx)
	if err != nil {
		return nil, err
	}
	absent, err := s.absentTeacherIDs(ctx, date)
	if err != nil {
		return nil, err
	}
	exclude := toSet(extraExclude)
	exclude[teacherID] = struct{}{}

	recommendations := make([]dto.PeriodRecommendation, 0, len(periods))
	for _, period := range periods {
		candidates, err := s.candidates(ctx, date, day, period.PeriodID, roster, absent, exclude)
		if err != nil {
			return nil, err
		}
		ranked, err := s.rank(ctx, date, day, candidates)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, dto.PeriodRecommendation{AbsentPeriod: period, Candidates: ranked})
	}
	return recommendations, nil
}

// List returns committed assignments for a date.
func (s *ProxyService) List(ctx context.Context, query dto.ProxyListQuery) ([]models.ProxyAssignmentDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proxy list query")
	}
	date, err := models.ParseDate(query.Date)
	if err != nil {
		return nil, err
	}
	items, err := s.proxies.List(ctx, models.ProxyFilter{
		Date:                date,
		AbsentTeacherID:     query.AbsentTeacherID,
		PeriodID:            query.PeriodID,
		SubstituteTeacherID: query.SubstituteTeacherID,
	})
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to list proxy assignments")
	}
	return items, nil
}

// Delete removes one committed assignment. The absence record is left untouched.
func (s *ProxyService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if !actor.CanManageProxies() {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators may delete substitutions")
	}
	existing, err := s.proxies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "proxy assignment not found")
		}
		return s.storageFault(ctx, err, "failed to load proxy assignment")
	}
	if err := s.proxies.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "proxy assignment not found")
		}
		return s.storageFault(ctx, err, "failed to delete proxy assignment")
	}

	s.logger.Info("proxy assignment deleted",
		zap.String("proxy_id", id),
		zap.String("period_id", existing.PeriodID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	oldValues, _ := json.Marshal(existing)
	s.emitAudit(ctx, actor, models.AuditActionProxyDelete, &existing.ID, oldValues, nil)
	return nil
}

// ListAbsences returns the absences recorded for a date.
func (s *ProxyService) ListAbsences(ctx context.Context, rawDate string) ([]models.AbsenceDetail, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}
	absences, err := s.absences.ListByDate(ctx, date)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to list absences")
	}
	return absences, nil
}

func (s *ProxyService) absentPeriods(ctx context.Context, teacherID string, date time.Time, day models.DaySlot) ([]dto.AbsentPeriod, error) {
	if _, err := s.findTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	slots, err := s.schedule.ListByTeacherDay(ctx, teacherID, day)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load teacher schedule")
	}
	existing, err := s.proxies.ListByAbsentTeacher(ctx, date, teacherID)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load proxy assignments")
	}
	byPeriod := make(map[string]models.ProxyAssignment, len(existing))
	for _, proxy := range existing {
		byPeriod[proxy.PeriodID] = proxy
	}

	periods := make([]dto.AbsentPeriod, 0, len(slots))
	for _, slot := range slots {
		if slot.PeriodKind != models.PeriodKindRegular {
			continue
		}
		item := dto.AbsentPeriod{
			PeriodID:      slot.PeriodID,
			PeriodOrdinal: slot.PeriodOrdinal,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			ClassID:       slot.ClassID,
			ClassName:     slot.ClassName,
			SubjectID:     slot.SubjectID,
			SubjectName:   slot.SubjectName,
		}
		if proxy, ok := byPeriod[slot.PeriodID]; ok {
			proxy := proxy
			item.Existing = &proxy
		}
		periods = append(periods, item)
	}
	return periods, nil
}

// candidates removes from roster everyone teaching or substituting in the period, absent on the date, or excluded.
func (s *ProxyService) candidates(ctx context.Context, date time.Time, day models.DaySlot, periodID string, roster []models.Teacher, absent, exclude map[string]struct{}) ([]models.Teacher, error) {
	slots, err := s.schedule.ListByDayPeriod(ctx, day, periodID)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load period schedule")
	}
	committed, err := s.proxies.ListByDatePeriod(ctx, date, periodID)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load proxy assignments")
	}

	busy := make(map[string]struct{}, len(slots)+len(committed))
	for _, slot := range slots {
		busy[slot.TeacherID] = struct{}{}
	}
	for _, proxy := range committed {
		busy[proxy.SubstituteTeacherID] = struct{}{}
	}

	free := make([]models.Teacher, 0, len(roster))
	for _, teacher := range roster {
		if _, ok := busy[teacher.ID]; ok {
			continue
		}
		if _, ok := absent[teacher.ID]; ok {
			continue
		}
		if _, ok := exclude[teacher.ID]; ok {
			continue
		}
		free = append(free, teacher)
	}
	return free, nil
}

func (s *ProxyService) rank(ctx context.Context, date time.Time, day models.DaySlot, candidates []models.Teacher) ([]dto.AvailableTeacher, error) {
	ids := make([]string, 0, len(candidates))
	for _, teacher := range candidates {
		ids = append(ids, teacher.ID)
	}

	start := time.Now()
	regular, err := s.schedule.CountByDay(ctx, day, ids)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to count regular classes")
	}
	substitutions, err := s.proxies.CountByDate(ctx, date, ids)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to count substitutions")
	}
	s.metrics.ObserveDBQuery("proxy_load", time.Since(start))

	ranked := rankByLoad(candidates, loadIndex(regular), loadIndex(substitutions))
	s.metrics.ObserveCandidates(len(ranked))
	return ranked, nil
}

func (s *ProxyService) activeTeachers(ctx context.Context) ([]models.Teacher, error) {
	key := cache.Key("roster", "active")
	var roster []models.Teacher
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &roster); err == nil && hit {
			return roster, nil
		}
	}
	roster, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load teacher roster")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, roster, s.cfg.RosterTTL)
	}
	return roster, nil
}

func (s *ProxyService) findPeriod(ctx context.Context, id string) (*models.Period, error) {
	key := cache.Key("periods")
	var periods []models.Period
	hit := false
	if s.cache != nil {
		hit, _ = s.cache.Get(ctx, key, &periods)
	}
	if !hit {
		loaded, err := s.periods.List(ctx)
		if err != nil {
			return nil, s.storageFault(ctx, err, "failed to load periods")
		}
		periods = loaded
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, periods, s.cfg.RosterTTL)
		}
	}
	for i := range periods {
		if periods[i].ID == id {
			return &periods[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("period %s not found", id))
}

func (s *ProxyService) findTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", id))
		}
		return nil, s.storageFault(ctx, err, "failed to load teacher")
	}
	return teacher, nil
}

func (s *ProxyService) absentTeacherIDs(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	absences, err := s.absences.ListByDate(ctx, date)
	if err != nil {
		return nil, s.storageFault(ctx, err, "failed to load absences")
	}
	ids := make(map[string]struct{}, len(absences))
	for _, absence := range absences {
		ids[absence.TeacherID] = struct{}{}
	}
	return ids, nil
}

// storageFault logs an infrastructure failure and hides it behind SERVICE_UNAVAILABLE.
func (s *ProxyService) storageFault(ctx context.Context, err error, message string) error {
	s.logger.Error(message, zap.Error(err), zap.String("request_id", requestid.FromContext(ctx)))
	return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, message)
}

func (s *ProxyService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, resourceID *string, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	var userID *string
	if actor != nil {
		userID = &actor.UserID
	}
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   proxyResource,
		ResourceID: resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "proxy-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record proxy audit", zap.String("action", action), zap.Error(err))
	}
}

func parseTeachingDate(raw string) (time.Time, models.DaySlot, error) {
	date, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, 0, err
	}
	day, err := models.ResolveDaySlot(date)
	if err != nil {
		return time.Time{}, 0, err
	}
	return date, day, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values)+1)
	for _, value := range values {
		if value != "" {
			set[value] = struct{}{}
		}
	}
	return set
}
