package teacher

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
)

type Teacher struct {
	ID            string      `json:"id"`
	AutoID        int         `json:"auto_id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Subject       string      `json:"subject"`
	Phone         string      `json:"phone"`
	Email         string      `json:"email"`
	BirthDate     string      `json:"birth_date"` // YYYY-MM-DD
	Gender        string      `json:"gender"`
	Residence     string      `json:"residence"`
	Address       null.String `json:"address"`
	City          null.String `json:"city"`
	Qualification null.String `json:"qualification"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

func (t Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// WithSchedule is a Teacher along with its weekly timetable.
type WithSchedule struct {
	Teacher
	Schedule []schedule.Slot `json:"schedule"`
}

// NewTeacher contains information needed to register a Teacher.
type NewTeacher struct {
	FirstName     string `json:"first_name" validate:"required,notblank"`
	LastName      string `json:"last_name" validate:"required,notblank"`
	Subject       string `json:"subject" validate:"required,notblank"`
	Phone         string `json:"phone" validate:"required,notblank"`
	Email         string `json:"email" validate:"required,email"`
	BirthDate     string `json:"birth_date" validate:"required,isoday"`
	Gender        string `json:"gender" validate:"required,oneof=male female"`
	Residence     string `json:"residence" validate:"required,notblank"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Qualification string `json:"qualification"`
}

func (nt *NewTeacher) Validate() error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Subject = core.CleanString(nt.Subject)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.BirthDate = core.CleanString(nt.BirthDate)
	nt.Gender = core.CleanString(nt.Gender, true /* lower */)
	nt.Residence = core.CleanString(nt.Residence)
	nt.Address = core.CleanString(nt.Address)
	nt.City = core.CleanString(nt.City)
	nt.Qualification = core.CleanString(nt.Qualification)
	return core.ValidateStruct(nt)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// Empty fields keep their current value.
type UpdateTeacher struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Subject       string  `json:"subject"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email" validate:"omitempty,email"`
	BirthDate     string  `json:"birth_date" validate:"omitempty,isoday"`
	Gender        string  `json:"gender" validate:"omitempty,oneof=male female"`
	Residence     string  `json:"residence"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Qualification *string `json:"qualification"`
}

func (ut *UpdateTeacher) Validate() error {
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.BirthDate = core.CleanString(ut.BirthDate)
	ut.Gender = core.CleanString(ut.Gender, true /* lower */)
	return core.ValidateStruct(ut)
}

func (ut UpdateTeacher) apply(t Teacher) Teacher {
	set := func(dst *string, v string) {
		if v = core.CleanString(v); v != "" {
			*dst = v
		}
	}
	setNull := func(dst *null.String, v *string) {
		if v != nil {
			s := core.CleanString(*v)
			*dst = null.NewString(s, s != "")
		}
	}
	set(&t.FirstName, ut.FirstName)
	set(&t.LastName, ut.LastName)
	set(&t.Subject, ut.Subject)
	set(&t.Phone, ut.Phone)
	set(&t.Email, ut.Email)
	set(&t.BirthDate, ut.BirthDate)
	set(&t.Gender, ut.Gender)
	set(&t.Residence, ut.Residence)
	setNull(&t.Address, ut.Address)
	setNull(&t.City, ut.City)
	setNull(&t.Qualification, ut.Qualification)
	return t
}

type teachersDoc struct {
	NextAutoID int       `json:"next_auto_id"`
	Items      []Teacher `json:"items"`
}
