package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PeriodKind tags what happens during a period. Only PeriodKindRegular accepts substitutes.
type PeriodKind string

const (
	PeriodKindRegular  PeriodKind = "REGULAR"
	PeriodKindRecess   PeriodKind = "RECESS"
	PeriodKindLunch    PeriodKind = "LUNCH"
	PeriodKindAssembly PeriodKind = "ASSEMBLY"
	PeriodKindActivity PeriodKind = "ACTIVITY"
)

// Valid reports whether k is a known period kind.
func (k PeriodKind) Valid() bool {
	switch k {
	case PeriodKindRegular, PeriodKindRecess, PeriodKindLunch, PeriodKindAssembly, PeriodKindActivity:
		return true
	}
	return false
}

// ParsePeriodKind normalises raw into a known kind.
func ParsePeriodKind(raw string) (PeriodKind, error) {
	kind := PeriodKind(strings.ToUpper(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown period kind %q", raw)
	}
	return kind, nil
}

// UnmarshalJSON rejects unknown kinds.
func (k *PeriodKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePeriodKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Period is an ordinal slot within the school day.
type Period struct {
	ID        string     `db:"id" json:"id"`
	Ordinal   int        `db:"ordinal" json:"ordinal"`
	Name      string     `db:"name" json:"name"`
	StartTime string     `db:"start_time" json:"start_time"`
	EndTime   string     `db:"end_time" json:"end_time"`
	Kind      PeriodKind `db:"kind" json:"kind"`
}

// AcceptsSubstitutes reports whether the period can be covered by a proxy.
func (p Period) AcceptsSubstitutes() bool {
	return p.Kind == PeriodKindRegular
}
