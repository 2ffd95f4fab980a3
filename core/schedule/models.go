package schedule

import (
	"sort"
	"time"
)

// Days is the closed set of school days, Monday first.
var Days = []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// TimeSlots is the grid start and end times are picked from.
var TimeSlots = []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

type Scope string

const (
	ScopeClass   Scope = "class"
	ScopeTeacher Scope = "teacher"
)

type Slot struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
	Subject   string `json:"subject,omitempty"`    // class scope label
	ClassName string `json:"class_name,omitempty"` // teacher scope label
	TeacherID string `json:"teacher_id"`
	ClassID   string `json:"class_id,omitempty"`
}

// OwnerID returns the class or the teacher the slot belongs to.
func (s Slot) OwnerID(scope Scope) string {
	if scope == ScopeTeacher {
		return s.TeacherID
	}
	return s.ClassID
}

// NewSlot is a slot submitted for an owner. Times are compared as "HH:MM" strings.
type NewSlot struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,slottime"`
	EndTime   string `json:"end_time" validate:"required,slottime"`
	Subject   string `json:"subject"`
	ClassName string `json:"class_name"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// Overlaps reports whether two same-day ranges [start,end) share any time, containment
// included. Adjacent ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// SortByStart orders slots by day of the week then start time, in place.
func SortByStart(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		di, dj := DayIndex(slots[i].Day), DayIndex(slots[j].Day)
		if di != dj {
			return di < dj
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// DayIndex returns the position of `day` in Days, or -1.
func DayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

// DayOf returns the school day name of `t`, or "" on Sundays.
func DayOf(t time.Time) string {
	wd := t.Weekday()
	if wd == time.Sunday {
		return ""
	}
	return Days[int(wd)-1]
}
