package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
)

type Status string

const (
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusLate      Status = "late"
	StatusDismissed Status = "dismissed"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusDismissed}

type Record struct {
	ID             string      `json:"id"`
	StudentID      string      `json:"student_id,omitempty"`
	TeacherID      string      `json:"teacher_id,omitempty"`
	ScheduleSlotID string      `json:"schedule_slot_id"`
	Date           string      `json:"date"` // YYYY-MM-DD
	Status         Status      `json:"status"`
	Justification  null.String `json:"justification"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
}

// Key identifies at most one Record. Exactly one of StudentID and TeacherID is set;
// the other stays empty so a student record and a teacher record never collide.
type Key struct {
	SlotID    string
	Date      string
	StudentID string
	TeacherID string
}

func (r Record) Key() Key {
	return Key{SlotID: r.ScheduleSlotID, Date: r.Date, StudentID: r.StudentID, TeacherID: r.TeacherID}
}

// Mark is an attendance entry, for either a student or a teacher.
type Mark struct {
	ScheduleSlotID string `json:"schedule_slot_id" validate:"required"`
	Date           string `json:"date" validate:"required,isoday"`
	Status         Status `json:"status" validate:"required,oneof=present absent late dismissed"`
	StudentID      string `json:"student_id"`
	TeacherID      string `json:"teacher_id"`
	Justification  string `json:"justification"`
}

func (m Mark) Key() Key {
	return Key{SlotID: m.ScheduleSlotID, Date: m.Date, StudentID: m.StudentID, TeacherID: m.TeacherID}
}

func (m *Mark) Validate() error {
	m.ScheduleSlotID = core.CleanString(m.ScheduleSlotID)
	m.Date = core.CleanString(m.Date)
	m.Status = Status(core.CleanString(string(m.Status), true /* lower */))
	m.StudentID = core.CleanString(m.StudentID)
	m.TeacherID = core.CleanString(m.TeacherID)
	m.Justification = core.CleanString(m.Justification)
	return core.ValidateStruct(m)
}

// Tally counts a slot's attendance over a roster on a given date.
type Tally struct {
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	Late      int `json:"late"`
	Dismissed int `json:"dismissed"`
}

var (
	oneSubjectTag  = "one_subject"
	oneSubjectText = "exactly one of student_id or teacher_id is required"
)

func init() {
	core.Validate.RegisterStructValidation(markStructValidation, Mark{})
	core.RegisterCustomTranslation(oneSubjectTag, oneSubjectText)
}

// markStructValidation checks that a Mark is about exactly one of a student or a teacher.
func markStructValidation(sl validator.StructLevel) {
	m := sl.Current().Interface().(Mark)
	if (m.StudentID == "") == (m.TeacherID == "") {
		sl.ReportError(m.StudentID, "student_id", "StudentID", oneSubjectTag, "")
		sl.ReportError(m.TeacherID, "teacher_id", "TeacherID", oneSubjectTag, "")
	}
}
