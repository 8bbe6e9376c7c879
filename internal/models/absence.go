package models

import "time"

// Absence records that a teacher is away on a date. One row per (teacher, date).
type Absence struct {
	ID        string      `db:"id" json:"id"`
	TeacherID string      `db:"teacher_id" json:"teacher_id"`
	Date      time.Time   `db:"absence_date" json:"date"`
	Status    ProxyStatus `db:"status" json:"status"`
	Reason    *string     `db:"reason" json:"reason,omitempty"`
	CreatedBy string      `db:"created_by" json:"created_by"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// AbsenceDetail adds the teacher's display name.
type AbsenceDetail struct {
	Absence
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
