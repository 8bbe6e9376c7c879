package models

import "time"

// ScheduleSlot binds a teacher to a class and subject for a recurring (day, period).
type ScheduleSlot struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DaySlot   DaySlot   `db:"day_slot" json:"day_slot"`
	PeriodID  string    `db:"period_id" json:"period_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleSlotDetail enriches a slot with its period and descriptive names.
type ScheduleSlotDetail struct {
	ScheduleSlot
	PeriodOrdinal int        `db:"period_ordinal" json:"period_ordinal"`
	PeriodKind    PeriodKind `db:"period_kind" json:"period_kind"`
	StartTime     string     `db:"start_time" json:"start_time"`
	EndTime       string     `db:"end_time" json:"end_time"`
	ClassName     string     `db:"class_name" json:"class_name"`
	SubjectName   string     `db:"subject_name" json:"subject_name"`
}
