package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProxyStatus explains why the regular teacher is not teaching.
type ProxyStatus string

const (
	ProxyStatusAbsent  ProxyStatus = "ABSENT"
	ProxyStatusBusy    ProxyStatus = "BUSY"
	ProxyStatusHalfDay ProxyStatus = "HALF_DAY"
)

// Valid reports whether s is a known status.
func (s ProxyStatus) Valid() bool {
	switch s {
	case ProxyStatusAbsent, ProxyStatusBusy, ProxyStatusHalfDay:
		return true
	}
	return false
}

// ParseProxyStatus normalises raw into a known status.
func ParseProxyStatus(raw string) (ProxyStatus, error) {
	status := ProxyStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown proxy status %q", raw)
	}
	return status, nil
}

// UnmarshalJSON rejects unknown statuses.
func (s *ProxyStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseProxyStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ProxyAssignment is a committed substitution. ClassID and SubjectID are a
// snapshot of the absent teacher's timetable at commit time.
type ProxyAssignment struct {
	ID                  string      `db:"id" json:"id"`
	Date                time.Time   `db:"proxy_date" json:"date"`
	AbsentTeacherID     string      `db:"absent_teacher_id" json:"absent_teacher_id"`
	PeriodID            string      `db:"period_id" json:"period_id"`
	ClassID             string      `db:"class_id" json:"class_id"`
	SubjectID           string      `db:"subject_id" json:"subject_id"`
	SubstituteTeacherID string      `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	Status              ProxyStatus `db:"status" json:"status"`
	Remarks             *string     `db:"remarks" json:"remarks,omitempty"`
	CreatedBy           string      `db:"created_by" json:"created_by"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
}

// ProxyAssignmentDetail enriches an assignment with display names for listings and exports.
type ProxyAssignmentDetail struct {
	ProxyAssignment
	PeriodOrdinal         int    `db:"period_ordinal" json:"period_ordinal"`
	AbsentTeacherName     string `db:"absent_teacher_name" json:"absent_teacher_name"`
	SubstituteTeacherName string `db:"substitute_teacher_name" json:"substitute_teacher_name"`
	ClassName             string `db:"class_name" json:"class_name"`
	SubjectName           string `db:"subject_name" json:"subject_name"`
}

// ProxyFilter narrows registry listings. Date is mandatory.
type ProxyFilter struct {
	Date                time.Time
	AbsentTeacherID     string
	PeriodID            string
	SubstituteTeacherID string
}

// ProxyConflictReason names the check a proposed substitution failed.
type ProxyConflictReason string

const (
	ConflictRegularClass        ProxyConflictReason = "REGULAR_CLASS"
	ConflictAlreadySubstituting ProxyConflictReason = "ALREADY_SUBSTITUTING"
	ConflictClassCovered        ProxyConflictReason = "CLASS_ALREADY_COVERED"
	ConflictSubstituteAbsent    ProxyConflictReason = "SUBSTITUTE_ABSENT"
)

// ProxyConflict describes why a proposed substitute cannot take a period.
// ChoiceIndex is -1 when the absent teacher is the one already substituting.
type ProxyConflict struct {
	ChoiceIndex         int                 `json:"choice_index"`
	Date                string              `json:"date"`
	PeriodID            string              `json:"period_id"`
	ClassID             string              `json:"class_id"`
	SubstituteTeacherID string              `json:"substitute_teacher_id"`
	ConflictingClassID  string              `json:"conflicting_class_id,omitempty"`
	Reason              ProxyConflictReason `json:"reason"`
}

// SubstituteUnavailableError is returned when a substitute became busy before commit.
type SubstituteUnavailableError struct {
	Message  string        `json:"message"`
	Conflict ProxyConflict `json:"conflict"`
}

// Error implements the error interface.
func (e *SubstituteUnavailableError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
