package grading

import (
	"time"

	"github.com/trezcool/ecole/core"
)

type Semester string

const (
	Semester1 Semester = "1"
	Semester2 Semester = "2"
)

type AssessmentType string

const (
	TypeDevoir      AssessmentType = "devoir"
	TypeComposition AssessmentType = "composition"
)

// Grade bounds
const (
	MinValue = 0
	MaxValue = 20
)

type Subject struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Coefficient float64  `json:"coefficient"`
	ClassID     string   `json:"class_id"`
	Semester    Semester `json:"semester"`
}

type Grade struct {
	ID        string         `json:"id"`
	StudentID string         `json:"student_id"`
	SubjectID string         `json:"subject_id"`
	Type      AssessmentType `json:"type"`
	Number    int            `json:"number,omitempty"` // devoir column; 0 means none
	Value     float64        `json:"value"`
	CreatedAt time.Time      `json:"created_at"` // UTC
}

// GradeKey identifies at most one Grade.
type GradeKey struct {
	StudentID string
	SubjectID string
	Type      AssessmentType
	Number    int
}

func (g Grade) Key() GradeKey {
	return GradeKey{StudentID: g.StudentID, SubjectID: g.SubjectID, Type: g.Type, Number: g.Number}
}

// NewSubject contains information needed to add a Subject to a class semester.
type NewSubject struct {
	Name        string  `json:"name" validate:"required,notblank"`
	Coefficient float64 `json:"coefficient" validate:"gt=0"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	if ns.Coefficient == 0 {
		ns.Coefficient = 1
	}
	return core.ValidateStruct(ns)
}

// NewGrade is a grade as typed in a grade sheet; unlike UpsertGrade, its value is range checked.
type NewGrade struct {
	StudentID string         `json:"student_id" validate:"required"`
	SubjectID string         `json:"subject_id" validate:"required"`
	Type      AssessmentType `json:"type" validate:"required,oneof=devoir composition"`
	Number    int            `json:"number" validate:"min=0"`
	Value     float64        `json:"value" validate:"min=0,max=20"`
}

func (ng *NewGrade) Validate() error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.SubjectID = core.CleanString(ng.SubjectID)
	ng.Type = AssessmentType(core.CleanString(string(ng.Type), true /* lower */))
	return core.ValidateStruct(ng)
}
