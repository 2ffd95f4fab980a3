package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
)

const StorageKey = "attendance-records"

// Store keeps attendance records. Records are never deleted; corrections are upserts.
type Store struct {
	kv  core.KVStore
	log core.Logger

	mu      sync.RWMutex
	records []Record
}

func NewStore(kv core.KVStore, logger core.Logger) *Store {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Store{kv: kv, log: logger}
}

// Init (re)loads the records. Unreadable data is logged and treated as empty.
func (s *Store) Init(ctx context.Context) error {
	var records []Record
	if _, err := core.LoadOrReset(ctx, s.kv, s.log, StorageKey, &records); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *Store) index(key Key) int {
	for i, r := range s.records {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

// Upsert records `m`. A record already stored for the same Key keeps its ID and CreatedAt
// and gets the new status and justification.
func (s *Store) Upsert(ctx context.Context, m Mark) (Record, error) {
	if err := m.Validate(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		StudentID:      m.StudentID,
		TeacherID:      m.TeacherID,
		ScheduleSlotID: m.ScheduleSlotID,
		Date:           m.Date,
		Status:         m.Status,
		Justification:  null.NewString(m.Justification, m.Justification != ""),
	}

	var next []Record
	if idx := s.index(m.Key()); idx >= 0 {
		rec.ID = s.records[idx].ID
		rec.CreatedAt = s.records[idx].CreatedAt
		next = make([]Record, len(s.records))
		copy(next, s.records)
		next[idx] = rec
	} else {
		rec.ID = core.NewID()
		rec.CreatedAt = core.NowFunc().UTC()
		next = make([]Record, 0, len(s.records)+1)
		next = append(next, s.records...)
		next = append(next, rec)
	}

	if err := core.SaveJSON(ctx, s.kv, StorageKey, next); err != nil {
		return Record{}, err
	}
	s.records = next
	return rec, nil
}

// Lookup returns the record stored for `key`, if any.
func (s *Store) Lookup(key Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.index(key); idx >= 0 {
		return s.records[idx], true
	}
	return Record{}, false
}

// StatusOf returns the status recorded for `key`; no record means present.
func (s *Store) StatusOf(key Key) Status {
	if rec, ok := s.Lookup(key); ok {
		return rec.Status
	}
	return StatusPresent
}

func (s *Store) filter(keep func(Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) ListByDate(date string) []Record {
	return s.filter(func(r Record) bool { return r.Date == date })
}

func (s *Store) ListByStudent(studentID, date string) []Record {
	return s.filter(func(r Record) bool { return r.StudentID == studentID && r.Date == date })
}

func (s *Store) ListByTeacher(teacherID, date string) []Record {
	return s.filter(func(r Record) bool { return r.TeacherID == teacherID && r.Date == date })
}

func (s *Store) List() []Record {
	return s.filter(func(Record) bool { return true })
}

// SlotTally counts the statuses of `studentIDs` for a slot on `date`.
// Students without a record count as present.
func (s *Store) SlotTally(slotID, date string, studentIDs []string) Tally {
	var t Tally
	for _, id := range studentIDs {
		switch s.StatusOf(Key{SlotID: slotID, Date: date, StudentID: id}) {
		case StatusAbsent:
			t.Absent++
		case StatusLate:
			t.Late++
		case StatusDismissed:
			t.Dismissed++
		default:
			t.Present++
		}
	}
	return t
}

// WeekDates returns the Monday to Saturday dates of the school week of `day`.
// A Sunday belongs to the week starting the next day.
func WeekDates(day string) ([]string, error) {
	t, err := time.Parse(core.ISODay, day)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing date %q", day)
	}
	monday := t.AddDate(0, 0, 1-int(t.Weekday()))
	dates := make([]string, 6)
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i).Format(core.ISODay)
	}
	return dates, nil
}
