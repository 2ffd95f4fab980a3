package school

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type SchoolClass struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"student_count"` // derived from the students list
}

type Student struct {
	ID            string      `json:"id"`
	AutoID        int         `json:"auto_id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	BirthDate     string      `json:"birth_date"` // YYYY-MM-DD
	BirthPlace    string      `json:"birth_place"`
	StudentNumber null.String `json:"student_number"`
	ParentPhone   string      `json:"parent_phone"`
	ClassID       string      `json:"class_id"`
	Gender        Gender      `json:"gender"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewStudent contains the registration form of a Student. It is also used to update one.
type NewStudent struct {
	FirstName     string `json:"first_name" validate:"required,notblank"`
	LastName      string `json:"last_name" validate:"required,notblank"`
	BirthDate     string `json:"birth_date" validate:"required,isoday"`
	BirthPlace    string `json:"birth_place" validate:"required,notblank"`
	StudentNumber string `json:"student_number"`
	ParentPhone   string `json:"parent_phone" validate:"required,notblank"`
	ClassID       string `json:"class_id" validate:"required"`
	Gender        Gender `json:"gender" validate:"required,oneof=male female"`
}

func (ns *NewStudent) Validate() error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.BirthDate = core.CleanString(ns.BirthDate)
	ns.BirthPlace = core.CleanString(ns.BirthPlace)
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.ParentPhone = core.CleanString(ns.ParentPhone)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.Gender = Gender(core.CleanString(string(ns.Gender), true /* lower */))
	return core.ValidateStruct(ns)
}

// Counts feeds the dashboard.
type Counts struct {
	Students int `json:"students"`
	Classes  int `json:"classes"`
	Boys     int `json:"boys"`
	Girls    int `json:"girls"`
}

// document stored under StudentsKey.
type studentsDoc struct {
	NextAutoID int       `json:"next_auto_id"`
	Items      []Student `json:"items"`
}
