package teacher

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
)

const StorageKey = "teachers"

var ErrNotFound = errors.New("teacher not found")

// Timetable is the teacher-scoped schedule store.
type Timetable interface {
	ListByOwner(ownerID string) []schedule.Slot
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}

type Service struct {
	kv        core.KVStore
	log       core.Logger
	timetable Timetable

	mu         sync.RWMutex
	teachers   []Teacher
	nextAutoID int
}

func NewService(kv core.KVStore, logger core.Logger, timetable Timetable) *Service {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
		core.NotNil(timetable, "timetable"),
	).CheckAndPanic()

	return &Service{kv: kv, log: logger, timetable: timetable, nextAutoID: 1}
}

// Init (re)loads the teachers. Unreadable data is logged and treated as empty.
func (svc *Service) Init(ctx context.Context) error {
	var doc teachersDoc
	if _, err := core.LoadOrReset(ctx, svc.kv, svc.log, StorageKey, &doc); err != nil {
		return err
	}
	nextID := doc.NextAutoID
	for _, t := range doc.Items {
		if t.AutoID >= nextID {
			nextID = t.AutoID + 1
		}
	}
	if nextID < 1 {
		nextID = 1
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.teachers = doc.Items
	svc.nextAutoID = nextID
	return nil
}

func (svc *Service) save(ctx context.Context, teachers []Teacher, nextAutoID int) error {
	return core.SaveJSON(ctx, svc.kv, StorageKey, teachersDoc{NextAutoID: nextAutoID, Items: teachers})
}

func (svc *Service) index(id string) int {
	for i, t := range svc.teachers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (svc *Service) Add(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(); err != nil {
		return Teacher{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := core.NowFunc().UTC()
	t := Teacher{
		ID:            core.NewID(),
		AutoID:        svc.nextAutoID,
		FirstName:     nt.FirstName,
		LastName:      nt.LastName,
		Subject:       nt.Subject,
		Phone:         nt.Phone,
		Email:         nt.Email,
		BirthDate:     nt.BirthDate,
		Gender:        nt.Gender,
		Residence:     nt.Residence,
		Address:       null.NewString(nt.Address, nt.Address != ""),
		City:          null.NewString(nt.City, nt.City != ""),
		Qualification: null.NewString(nt.Qualification, nt.Qualification != ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	next := make([]Teacher, 0, len(svc.teachers)+1)
	next = append(next, svc.teachers...)
	next = append(next, t)
	if err := svc.save(ctx, next, svc.nextAutoID+1); err != nil {
		return Teacher{}, err
	}
	svc.teachers = next
	svc.nextAutoID++
	return t, nil
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	if err := ut.Validate(); err != nil {
		return Teacher{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.index(id)
	if idx < 0 {
		return Teacher{}, ErrNotFound
	}
	next := make([]Teacher, len(svc.teachers))
	copy(next, svc.teachers)
	t := ut.apply(next[idx])
	t.UpdatedAt = core.NowFunc().UTC()
	next[idx] = t
	if err := svc.save(ctx, next, svc.nextAutoID); err != nil {
		return Teacher{}, err
	}
	svc.teachers = next
	return t, nil
}

// Delete removes the teacher and its timetable.
func (svc *Service) Delete(ctx context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.index(id)
	if idx < 0 {
		return ErrNotFound
	}
	// timetable first: a failed purge keeps the teacher so the delete can be retried
	if err := svc.timetable.DeleteAllForOwner(ctx, id); err != nil {
		return errors.Wrap(err, "deleting teacher schedule")
	}
	next := make([]Teacher, 0, len(svc.teachers)-1)
	next = append(next, svc.teachers[:idx]...)
	next = append(next, svc.teachers[idx+1:]...)
	if err := svc.save(ctx, next, svc.nextAutoID); err != nil {
		return err
	}
	svc.teachers = next
	return nil
}

func (svc *Service) Get(id string) (Teacher, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if idx := svc.index(id); idx >= 0 {
		return svc.teachers[idx], nil
	}
	return Teacher{}, ErrNotFound
}

func (svc *Service) List() []Teacher {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]Teacher, len(svc.teachers))
	copy(out, svc.teachers)
	return out
}

func (svc *Service) Count() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.teachers)
}

func (svc *Service) WithSchedule(id string) (WithSchedule, error) {
	t, err := svc.Get(id)
	if err != nil {
		return WithSchedule{}, err
	}
	slots := svc.timetable.ListByOwner(id)
	schedule.SortByStart(slots)
	return WithSchedule{Teacher: t, Schedule: slots}, nil
}
