package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/internal/repository"
)

// schoolDB is an in-memory stand-in for the registry and proxy tables.
// WithinTx works on a copy and publishes it only when the callback succeeds.
type schoolDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	teachers []models.Teacher
	periods  []models.Period
	slots    []models.ScheduleSlotDetail

	absences map[string]models.Absence
	proxies  []models.ProxyAssignment
	nextID   int

	locks     [][]string
	listErr   error
	txErr     error
	insertErr error
}

func absenceKey(teacherID string, date time.Time) string {
	return teacherID + "|" + date.Format(models.DateLayout)
}

// newScenarioDB seeds Monday 2024-03-04: T teaches 5A Math at P1 and Science at P2,
// S teaches 5B at P1, W teaches 5C at P1, U teaches 5A at P3, V has no classes.
func newScenarioDB() *schoolDB {
	db := &schoolDB{absences: map[string]models.Absence{}}
	for _, name := range []string{"S", "T", "U", "V", "W"} {
		db.teachers = append(db.teachers, models.Teacher{ID: name, FullName: "Teacher " + name, Active: true})
	}
	db.teachers = append(db.teachers, models.Teacher{ID: "Z", FullName: "Teacher Z", Active: false})
	db.periods = []models.Period{
		{ID: "P1", Ordinal: 1, Name: "Period 1", StartTime: "07:00", EndTime: "07:45", Kind: models.PeriodKindRegular},
		{ID: "P2", Ordinal: 2, Name: "Period 2", StartTime: "07:45", EndTime: "08:30", Kind: models.PeriodKindRegular},
		{ID: "R", Ordinal: 3, Name: "Recess", StartTime: "08:30", EndTime: "08:45", Kind: models.PeriodKindRecess},
		{ID: "P3", Ordinal: 4, Name: "Period 3", StartTime: "08:45", EndTime: "09:30", Kind: models.PeriodKindRegular},
	}
	db.addSlot("T", models.Monday, "P1", "5A", "MATH")
	db.addSlot("T", models.Monday, "P2", "5A", "SCI")
	db.addSlot("S", models.Monday, "P1", "5B", "ART")
	db.addSlot("W", models.Monday, "P1", "5C", "PE")
	db.addSlot("U", models.Monday, "P3", "5A", "ENG")
	db.addSlot("V", models.Tuesday, "P1", "5A", "MATH")
	return db
}

func (db *schoolDB) addSlot(teacherID string, day models.DaySlot, periodID, classID, subjectID string) {
	var period models.Period
	for _, p := range db.periods {
		if p.ID == periodID {
			period = p
		}
	}
	db.slots = append(db.slots, models.ScheduleSlotDetail{
		ScheduleSlot: models.ScheduleSlot{
			ID:        fmt.Sprintf("slot-%d", len(db.slots)+1),
			TeacherID: teacherID,
			DaySlot:   day,
			PeriodID:  periodID,
			ClassID:   classID,
			SubjectID: subjectID,
		},
		PeriodOrdinal: period.Ordinal,
		PeriodKind:    period.Kind,
		StartTime:     period.StartTime,
		EndTime:       period.EndTime,
		ClassName:     "Class " + classID,
		SubjectName:   "Subject " + subjectID,
	})
}

func (db *schoolDB) proxyCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.proxies)
}

func (db *schoolDB) absence(teacherID string, date time.Time) (models.Absence, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.absences[absenceKey(teacherID, date)]
	return a, ok
}

type fakeTeachers struct{ db *schoolDB }

func (f fakeTeachers) ListActive(ctx context.Context) ([]models.Teacher, error) {
	if f.db.listErr != nil {
		return nil, f.db.listErr
	}
	var active []models.Teacher
	for _, t := range f.db.teachers {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (f fakeTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, t := range f.db.teachers {
		if t.ID == id {
			teacher := t
			return &teacher, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakePeriods struct{ db *schoolDB }

func (f fakePeriods) List(ctx context.Context) ([]models.Period, error) {
	return append([]models.Period(nil), f.db.periods...), nil
}

type fakeSchedule struct{ db *schoolDB }

func (f fakeSchedule) ListByDayPeriod(ctx context.Context, day models.DaySlot, periodID string) ([]models.ScheduleSlot, error) {
	var out []models.ScheduleSlot
	for _, s := range f.db.slots {
		if s.DaySlot == day && s.PeriodID == periodID {
			out = append(out, s.ScheduleSlot)
		}
	}
	return out, nil
}

func (f fakeSchedule) ListByTeacherDay(ctx context.Context, teacherID string, day models.DaySlot) ([]models.ScheduleSlotDetail, error) {
	var out []models.ScheduleSlotDetail
	for _, s := range f.db.slots {
		if s.TeacherID == teacherID && s.DaySlot == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeSchedule) CountByDay(ctx context.Context, day models.DaySlot, teacherIDs []string) ([]models.TeacherLoad, error) {
	wanted := toSet(teacherIDs)
	counts := map[string]int{}
	for _, s := range f.db.slots {
		if _, ok := wanted[s.TeacherID]; ok && s.DaySlot == day {
			counts[s.TeacherID]++
		}
	}
	var loads []models.TeacherLoad
	for id, total := range counts {
		loads = append(loads, models.TeacherLoad{TeacherID: id, Total: total})
	}
	return loads, nil
}

type fakeAbsences struct{ db *schoolDB }

func (f fakeAbsences) ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceDetail, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.AbsenceDetail
	for _, a := range f.db.absences {
		if a.Date.Equal(date) {
			out = append(out, models.AbsenceDetail{Absence: a, TeacherName: "Teacher " + a.TeacherID})
		}
	}
	return out, nil
}

type fakeProxies struct{ db *schoolDB }

func (f fakeProxies) WithinTx(ctx context.Context, fn func(store repository.ProxyTxStore) error) error {
	f.db.txMu.Lock()
	defer f.db.txMu.Unlock()
	if f.db.txErr != nil {
		return f.db.txErr
	}

	f.db.mu.Lock()
	tx := &fakeTx{db: f.db, absences: map[string]models.Absence{}, proxies: append([]models.ProxyAssignment(nil), f.db.proxies...)}
	for k, v := range f.db.absences {
		tx.absences[k] = v
	}
	f.db.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.absences = tx.absences
	f.db.proxies = tx.proxies
	f.db.locks = append(f.db.locks, tx.locks)
	return nil
}

func (f fakeProxies) List(ctx context.Context, filter models.ProxyFilter) ([]models.ProxyAssignmentDetail, error) {
	if f.db.listErr != nil {
		return nil, f.db.listErr
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.ProxyAssignmentDetail
	for _, p := range f.db.proxies {
		if !p.Date.Equal(filter.Date) {
			continue
		}
		if filter.AbsentTeacherID != "" && p.AbsentTeacherID != filter.AbsentTeacherID {
			continue
		}
		if filter.PeriodID != "" && p.PeriodID != filter.PeriodID {
			continue
		}
		if filter.SubstituteTeacherID != "" && p.SubstituteTeacherID != filter.SubstituteTeacherID {
			continue
		}
		out = append(out, models.ProxyAssignmentDetail{ProxyAssignment: p})
	}
	return out, nil
}

func (f fakeProxies) ListByDatePeriod(ctx context.Context, date time.Time, periodID string) ([]models.ProxyAssignment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.ProxyAssignment
	for _, p := range f.db.proxies {
		if p.Date.Equal(date) && p.PeriodID == periodID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeProxies) ListByAbsentTeacher(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.ProxyAssignment
	for _, p := range f.db.proxies {
		if p.Date.Equal(date) && p.AbsentTeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeProxies) CountByDate(ctx context.Context, date time.Time, teacherIDs []string) ([]models.TeacherLoad, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	wanted := toSet(teacherIDs)
	counts := map[string]int{}
	for _, p := range f.db.proxies {
		if _, ok := wanted[p.SubstituteTeacherID]; ok && p.Date.Equal(date) {
			counts[p.SubstituteTeacherID]++
		}
	}
	var loads []models.TeacherLoad
	for id, total := range counts {
		loads = append(loads, models.TeacherLoad{TeacherID: id, Total: total})
	}
	return loads, nil
}

func (f fakeProxies) FindByID(ctx context.Context, id string) (*models.ProxyAssignment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.proxies {
		if p.ID == id {
			proxy := p
			return &proxy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeProxies) Delete(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i, p := range f.db.proxies {
		if p.ID == id {
			f.db.proxies = append(f.db.proxies[:i], f.db.proxies[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeTx struct {
	db       *schoolDB
	absences map[string]models.Absence
	proxies  []models.ProxyAssignment
	locks    []string
}

func (t *fakeTx) Lock(ctx context.Context, key string) error {
	t.locks = append(t.locks, key)
	return nil
}

func (t *fakeTx) UpsertAbsence(ctx context.Context, absence *models.Absence) error {
	key := absenceKey(absence.TeacherID, absence.Date)
	if existing, ok := t.absences[key]; ok {
		absence.ID = existing.ID
		absence.CreatedAt = existing.CreatedAt
	} else {
		t.db.nextID++
		absence.ID = fmt.Sprintf("absence-%d", t.db.nextID)
		absence.CreatedAt = time.Now().UTC()
	}
	absence.UpdatedAt = time.Now().UTC()
	t.absences[key] = *absence
	return nil
}

func (t *fakeTx) FindAbsence(ctx context.Context, teacherID string, date time.Time) (*models.Absence, error) {
	if a, ok := t.absences[absenceKey(teacherID, date)]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (t *fakeTx) FindPeriod(ctx context.Context, id string) (*models.Period, error) {
	for _, p := range t.db.periods {
		if p.ID == id {
			period := p
			return &period, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *fakeTx) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	return fakeTeachers{db: t.db}.FindByID(ctx, id)
}

func (t *fakeTx) FindScheduleSlot(ctx context.Context, teacherID string, day models.DaySlot, periodID string) (*models.ScheduleSlot, error) {
	for _, s := range t.db.slots {
		if s.TeacherID == teacherID && s.DaySlot == day && s.PeriodID == periodID {
			slot := s.ScheduleSlot
			return &slot, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *fakeTx) FindProxyBySubstitute(ctx context.Context, date time.Time, periodID, teacherID string) (*models.ProxyAssignment, error) {
	for _, p := range t.proxies {
		if p.Date.Equal(date) && p.PeriodID == periodID && p.SubstituteTeacherID == teacherID {
			proxy := p
			return &proxy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *fakeTx) FindProxyByClass(ctx context.Context, date time.Time, periodID, classID string) (*models.ProxyAssignment, error) {
	for _, p := range t.proxies {
		if p.Date.Equal(date) && p.PeriodID == periodID && p.ClassID == classID {
			proxy := p
			return &proxy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *fakeTx) ListProxiesBySubstitute(ctx context.Context, date time.Time, teacherID string) ([]models.ProxyAssignment, error) {
	var out []models.ProxyAssignment
	for _, p := range t.proxies {
		if p.Date.Equal(date) && p.SubstituteTeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

// InsertProxy enforces the same unique constraints as proxy_assignments. insertErr stands in
// for a row a concurrent transaction committed after validation.
func (t *fakeTx) InsertProxy(ctx context.Context, proxy *models.ProxyAssignment) error {
	if t.db.insertErr != nil {
		return t.db.insertErr
	}
	for _, p := range t.proxies {
		if p.Date.Equal(proxy.Date) && p.PeriodID == proxy.PeriodID {
			if p.ClassID == proxy.ClassID {
				return &repository.ProxyConflictError{Constraint: repository.ProxyClassConstraint}
			}
			if p.SubstituteTeacherID == proxy.SubstituteTeacherID {
				return &repository.ProxyConflictError{Constraint: repository.ProxySubstituteConstraint}
			}
		}
	}
	t.db.nextID++
	proxy.ID = fmt.Sprintf("proxy-%d", t.db.nextID)
	proxy.CreatedAt = time.Now().UTC()
	t.proxies = append(t.proxies, *proxy)
	return nil
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}
