package dto

import "github.com/noah-isme/sma-proxy-api/internal/models"

// DaySlotResponse reports the timetable day a calendar date resolves to.
type DaySlotResponse struct {
	Date    string `json:"date"`
	DaySlot int    `json:"daySlot"`
	Day     string `json:"day"`
}

// AvailabilityQuery filters the candidate search for a single period.
type AvailabilityQuery struct {
	Date             string   `form:"date" json:"date" validate:"required"`
	PeriodID         string   `form:"periodId" json:"periodId" validate:"required"`
	ExcludeTeacherID string   `form:"excludeTeacherId" json:"excludeTeacherId"`
	Exclude          []string `form:"exclude" json:"exclude"`
}

// AvailableTeacher is a ranked substitute candidate.
type AvailableTeacher struct {
	TeacherID   string `json:"teacherId"`
	Name        string `json:"name"`
	CurrentLoad int    `json:"currentLoad"`
}

// AbsentPeriod describes one period an absent teacher would have taught.
type AbsentPeriod struct {
	PeriodID      string                  `json:"periodId"`
	PeriodOrdinal int                     `json:"periodOrdinal"`
	StartTime     string                  `json:"startTime"`
	EndTime       string                  `json:"endTime"`
	ClassID       string                  `json:"classId"`
	ClassName     string                  `json:"className"`
	SubjectID     string                  `json:"subjectId"`
	SubjectName   string                  `json:"subjectName"`
	Existing      *models.ProxyAssignment `json:"existing,omitempty"`
}

// PeriodRecommendation pairs an absent period with its ranked candidates.
type PeriodRecommendation struct {
	AbsentPeriod
	Candidates []AvailableTeacher `json:"candidates"`
}

// ProxyChoice is one substitution picked by the caller.
type ProxyChoice struct {
	PeriodID            string  `json:"periodId" validate:"required"`
	ClassID             string  `json:"classId" validate:"required"`
	SubjectID           string  `json:"subjectId" validate:"required"`
	SubstituteTeacherID string  `json:"substituteTeacherId" validate:"required"`
	Remarks             *string `json:"remarks" validate:"omitempty,max=500"`
}

// CommitProxiesRequest submits a batch of substitutions for one absent teacher.
type CommitProxiesRequest struct {
	Date            string        `json:"date" validate:"required"`
	AbsentTeacherID string        `json:"absentTeacherId" validate:"required"`
	Status          string        `json:"status" validate:"required,oneof=ABSENT BUSY HALF_DAY"`
	Reason          *string       `json:"reason" validate:"omitempty,max=500"`
	Choices         []ProxyChoice `json:"choices" validate:"required,min=1,dive"`
}

// ProxyListQuery filters the registry listing.
type ProxyListQuery struct {
	Date                string `form:"date" json:"date" validate:"required"`
	AbsentTeacherID     string `form:"absentTeacherId" json:"absentTeacherId"`
	PeriodID            string `form:"periodId" json:"periodId"`
	SubstituteTeacherID string `form:"substituteTeacherId" json:"substituteTeacherId"`
}

// RegisterQuery selects the export format of the daily register.
type RegisterQuery struct {
	Date   string `form:"date" json:"date" validate:"required"`
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}
