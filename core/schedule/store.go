package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

const (
	ClassKey   = "class-schedules"
	TeacherKey = "school-schedules"
)

var (
	// errors
	ErrNoSlots     = errors.New("at least one slot is required")
	ErrConflict    = errors.New("slots overlap on the same day")
	ErrInvalidTime = errors.New("start time must be before end time")
)

// Store keeps the weekly slots of either classes or teachers.
type Store struct {
	scope Scope
	key   string
	kv    core.KVStore
	log   core.Logger

	mu    sync.RWMutex
	slots []Slot
}

func newStore(scope Scope, key string, kv core.KVStore, logger core.Logger) *Store {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Store{scope: scope, key: key, kv: kv, log: logger}
}

// NewClassStore returns the store of class timetables (slot owner: ClassID, label: Subject).
func NewClassStore(kv core.KVStore, logger core.Logger) *Store {
	return newStore(ScopeClass, ClassKey, kv, logger)
}

// NewTeacherStore returns the store of teacher timetables (slot owner: TeacherID, label: ClassName).
func NewTeacherStore(kv core.KVStore, logger core.Logger) *Store {
	return newStore(ScopeTeacher, TeacherKey, kv, logger)
}

func (s *Store) Scope() Scope { return s.scope }

// Init (re)loads the slots. Unreadable data is logged and treated as empty.
func (s *Store) Init(ctx context.Context) error {
	var slots []Slot
	if _, err := core.LoadOrReset(ctx, s.kv, s.log, s.key, &slots); err != nil {
		return err
	}
	s.mu.Lock()
	s.slots = slots
	s.mu.Unlock()
	return nil
}

func (s *Store) validate(ownerID string, batch []NewSlot) error {
	if len(batch) == 0 {
		return core.NewValidationError(ErrNoSlots, core.FieldError{Field: "slots", Error: ErrNoSlots.Error()})
	}

	var flds []core.FieldError
	for i := range batch {
		ns := &batch[i]
		ns.Day = core.CleanString(ns.Day)
		ns.StartTime = core.CleanString(ns.StartTime)
		ns.EndTime = core.CleanString(ns.EndTime)
		ns.Subject = core.CleanString(ns.Subject)
		ns.ClassName = core.CleanString(ns.ClassName)
		ns.TeacherID = core.CleanString(ns.TeacherID)
		if s.scope == ScopeTeacher {
			ns.TeacherID = ownerID
		}

		prefix := fmt.Sprintf("slots[%d].", i)
		if err := core.ValidateStruct(ns, prefix); err != nil {
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				return err
			}
			flds = append(flds, verr.Fields...)
		}
		switch s.scope {
		case ScopeClass:
			if ns.Subject == "" {
				flds = append(flds, core.FieldError{Field: prefix + "subject", Error: "subject is required"})
			}
		case ScopeTeacher:
			if ns.ClassName == "" {
				flds = append(flds, core.FieldError{Field: prefix + "class_name", Error: "class_name is required"})
			}
		}
		if ns.StartTime != "" && ns.EndTime != "" && ns.StartTime >= ns.EndTime {
			flds = append(flds, core.FieldError{Field: prefix + "end_time", Error: ErrInvalidTime.Error()})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}

	for i := range batch {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if a.Day == b.Day && Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				msg := fmt.Sprintf("%s %s-%s overlaps %s-%s", a.Day, a.StartTime, a.EndTime, b.StartTime, b.EndTime)
				return core.NewValidationError(ErrConflict, core.FieldError{Field: fmt.Sprintf("slots[%d]", j), Error: msg})
			}
		}
	}
	return nil
}

// ReplaceSlotsForOwner validates `batch` and, if it holds no same-day overlap, replaces every
// slot of `ownerID` with it. Nothing is changed when the batch is rejected.
func (s *Store) ReplaceSlotsForOwner(ctx context.Context, ownerID string, batch []NewSlot) ([]Slot, error) {
	ownerID = core.CleanString(ownerID)
	if ownerID == "" {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "owner_id", Error: "owner_id is required"})
	}
	batch = append([]NewSlot(nil), batch...)
	if err := s.validate(ownerID, batch); err != nil {
		return nil, err
	}

	added := make([]Slot, len(batch))
	for i, ns := range batch {
		slot := Slot{
			ID:        ownerID + "-" + core.NewID(),
			Day:       ns.Day,
			StartTime: ns.StartTime,
			EndTime:   ns.EndTime,
			TeacherID: ns.TeacherID,
		}
		if s.scope == ScopeClass {
			slot.Subject = ns.Subject
			slot.ClassID = ownerID
		} else {
			slot.ClassName = ns.ClassName
		}
		added[i] = slot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Slot, 0, len(s.slots)+len(added))
	for _, slot := range s.slots {
		if slot.OwnerID(s.scope) != ownerID {
			next = append(next, slot)
		}
	}
	next = append(next, added...)
	if err := core.SaveJSON(ctx, s.kv, s.key, next); err != nil {
		return nil, err
	}
	s.slots = next
	return added, nil
}

// DeleteAllForOwner drops every slot of `ownerID`; unknown owners are a no-op.
func (s *Store) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.OwnerID(s.scope) != ownerID {
			next = append(next, slot)
		}
	}
	if len(next) == len(s.slots) {
		return nil
	}
	if err := core.SaveJSON(ctx, s.kv, s.key, next); err != nil {
		return err
	}
	s.slots = next
	return nil
}

func (s *Store) filter(keep func(Slot) bool) []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0)
	for _, slot := range s.slots {
		if keep(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// ListByOwner returns the owner's slots in insertion order.
func (s *Store) ListByOwner(ownerID string) []Slot {
	return s.filter(func(slot Slot) bool { return slot.OwnerID(s.scope) == ownerID })
}

// ListByTeacher returns every slot taught by `teacherID`, whatever the scope.
func (s *Store) ListByTeacher(teacherID string) []Slot {
	return s.filter(func(slot Slot) bool { return slot.TeacherID == teacherID })
}

func (s *Store) List() []Slot {
	return s.filter(func(Slot) bool { return true })
}

// Slot returns the slot with the given id.
func (s *Store) Slot(id string) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return Slot{}, false
}
