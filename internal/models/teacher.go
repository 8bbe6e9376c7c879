package models

import "time"

// Teacher represents an instructor record owned by the teacher registry.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	NIP       *string   `db:"nip" json:"nip,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherLoad is the number of commitments a teacher carries on a day.
type TeacherLoad struct {
	TeacherID string `db:"teacher_id"`
	Total     int    `db:"total"`
}
