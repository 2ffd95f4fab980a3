package school

import (
	"context"
	"strings"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
)

const (
	ClassesKey  = "classes"
	StudentsKey = "students"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrClassExists     = errors.New("a class with this name already exists")
	ErrClassNotEmpty   = errors.New("cannot delete a class that still has students")
)

// SlotPurger drops every schedule slot of an owner.
type SlotPurger interface {
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}

// Registry keeps the classes and the students enrolled in them.
type Registry struct {
	kv        core.KVStore
	log       core.Logger
	schedules SlotPurger

	mu         sync.RWMutex
	classes    []SchoolClass
	students   []Student
	nextAutoID int
}

// NewRegistry creates an empty Registry; call Init to load the stored data.
// `schedules` may be nil, in which case deleting a class leaves its schedule alone.
func NewRegistry(kv core.KVStore, logger core.Logger, schedules SlotPurger) *Registry {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Registry{kv: kv, log: logger, schedules: schedules, nextAutoID: 1}
}

// Init (re)loads classes and students. Unreadable documents are logged and treated as empty.
func (r *Registry) Init(ctx context.Context) error {
	var classes []SchoolClass
	if _, err := core.LoadOrReset(ctx, r.kv, r.log, ClassesKey, &classes); err != nil {
		return err
	}
	var doc studentsDoc
	if _, err := core.LoadOrReset(ctx, r.kv, r.log, StudentsKey, &doc); err != nil {
		return err
	}

	nextID := doc.NextAutoID
	for _, s := range doc.Items {
		if s.AutoID >= nextID {
			nextID = s.AutoID + 1
		}
	}
	if nextID < 1 {
		nextID = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = recount(classes, doc.Items)
	r.students = doc.Items
	r.nextAutoID = nextID
	return nil
}

// recount returns a copy of `classes` with StudentCount recomputed from `students`.
func recount(classes []SchoolClass, students []Student) []SchoolClass {
	counts := make(map[string]int, len(classes))
	for _, s := range students {
		counts[s.ClassID]++
	}
	out := make([]SchoolClass, len(classes))
	for i, c := range classes {
		c.StudentCount = counts[c.ID]
		out[i] = c
	}
	return out
}

// Classes

func (r *Registry) checkClassName(name string, exclID string) (string, error) {
	name = core.CleanString(name)
	if name == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "name", Error: "name cannot be blank"})
	}
	lname := strings.ToLower(name)
	for _, c := range r.classes {
		if c.ID != exclID && strings.ToLower(c.Name) == lname {
			return "", core.NewValidationError(ErrClassExists, core.FieldError{Field: "name", Error: ErrClassExists.Error()})
		}
	}
	return name, nil
}

func (r *Registry) AddClass(ctx context.Context, name string) (SchoolClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.checkClassName(name, "")
	if err != nil {
		return SchoolClass{}, err
	}
	class := SchoolClass{ID: core.NewID(), Name: name}
	next := make([]SchoolClass, 0, len(r.classes)+1)
	next = append(next, r.classes...)
	next = append(next, class)
	if err := core.SaveJSON(ctx, r.kv, ClassesKey, next); err != nil {
		return SchoolClass{}, err
	}
	r.classes = next
	return class, nil
}

func (r *Registry) RenameClass(ctx context.Context, id, name string) (SchoolClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.classIndex(id)
	if idx < 0 {
		return SchoolClass{}, ErrClassNotFound
	}
	name, err := r.checkClassName(name, id)
	if err != nil {
		return SchoolClass{}, err
	}
	next := make([]SchoolClass, len(r.classes))
	copy(next, r.classes)
	next[idx].Name = name
	if err := core.SaveJSON(ctx, r.kv, ClassesKey, next); err != nil {
		return SchoolClass{}, err
	}
	r.classes = next
	return next[idx], nil
}

// DeleteClass removes an empty class along with its class schedule.
func (r *Registry) DeleteClass(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.classIndex(id)
	if idx < 0 {
		return ErrClassNotFound
	}
	if r.classes[idx].StudentCount > 0 {
		return core.NewValidationError(ErrClassNotEmpty, core.FieldError{Field: "id", Error: ErrClassNotEmpty.Error()})
	}
	// schedule first: a failed purge keeps the class so the delete can be retried
	if r.schedules != nil {
		if err := r.schedules.DeleteAllForOwner(ctx, id); err != nil {
			return errors.Wrap(err, "deleting class schedule")
		}
	}
	next := make([]SchoolClass, 0, len(r.classes)-1)
	next = append(next, r.classes[:idx]...)
	next = append(next, r.classes[idx+1:]...)
	if err := core.SaveJSON(ctx, r.kv, ClassesKey, next); err != nil {
		return err
	}
	r.classes = next
	return nil
}

func (r *Registry) classIndex(id string) int {
	for i, c := range r.classes {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) Classes() []SchoolClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SchoolClass, len(r.classes))
	copy(out, r.classes)
	return out
}

func (r *Registry) Class(id string) (SchoolClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.classIndex(id); idx >= 0 {
		return r.classes[idx], nil
	}
	return SchoolClass{}, ErrClassNotFound
}

// ClassByName does a case-insensitive lookup.
func (r *Registry) ClassByName(name string) (SchoolClass, error) {
	lname := core.CleanString(name, true /* lower */)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.classes {
		if strings.ToLower(c.Name) == lname {
			return c, nil
		}
	}
	return SchoolClass{}, ErrClassNotFound
}

// Students

func (r *Registry) checkStudent(ns *NewStudent) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	if r.classIndex(ns.ClassID) < 0 {
		return core.NewValidationError(ErrClassNotFound, core.FieldError{Field: "class_id", Error: ErrClassNotFound.Error()})
	}
	return nil
}

func (r *Registry) saveStudents(ctx context.Context, students []Student, nextAutoID int) error {
	return core.SaveJSON(ctx, r.kv, StudentsKey, studentsDoc{NextAutoID: nextAutoID, Items: students})
}

// AddStudent registers a new Student; AutoID keeps increasing even across deletions.
func (r *Registry) AddStudent(ctx context.Context, ns NewStudent) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkStudent(&ns); err != nil {
		return Student{}, err
	}
	now := core.NowFunc().UTC()
	stud := Student{
		ID:            core.NewID(),
		AutoID:        r.nextAutoID,
		FirstName:     ns.FirstName,
		LastName:      ns.LastName,
		BirthDate:     ns.BirthDate,
		BirthPlace:    ns.BirthPlace,
		StudentNumber: null.NewString(ns.StudentNumber, ns.StudentNumber != ""),
		ParentPhone:   ns.ParentPhone,
		ClassID:       ns.ClassID,
		Gender:        ns.Gender,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	next := make([]Student, 0, len(r.students)+1)
	next = append(next, r.students...)
	next = append(next, stud)
	if err := r.saveStudents(ctx, next, r.nextAutoID+1); err != nil {
		return Student{}, err
	}
	r.students = next
	r.nextAutoID++
	r.classes = recount(r.classes, r.students)
	return stud, nil
}

func (r *Registry) UpdateStudent(ctx context.Context, id string, ns NewStudent) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.studentIndex(id)
	if idx < 0 {
		return Student{}, ErrStudentNotFound
	}
	if err := r.checkStudent(&ns); err != nil {
		return Student{}, err
	}
	next := make([]Student, len(r.students))
	copy(next, r.students)
	stud := next[idx]
	stud.FirstName = ns.FirstName
	stud.LastName = ns.LastName
	stud.BirthDate = ns.BirthDate
	stud.BirthPlace = ns.BirthPlace
	stud.StudentNumber = null.NewString(ns.StudentNumber, ns.StudentNumber != "")
	stud.ParentPhone = ns.ParentPhone
	stud.ClassID = ns.ClassID
	stud.Gender = ns.Gender
	stud.UpdatedAt = core.NowFunc().UTC()
	next[idx] = stud
	if err := r.saveStudents(ctx, next, r.nextAutoID); err != nil {
		return Student{}, err
	}
	r.students = next
	r.classes = recount(r.classes, r.students)
	return stud, nil
}

// DeleteStudent does not cascade: the student's attendance and grades are kept.
func (r *Registry) DeleteStudent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.studentIndex(id)
	if idx < 0 {
		return ErrStudentNotFound
	}
	next := make([]Student, 0, len(r.students)-1)
	next = append(next, r.students[:idx]...)
	next = append(next, r.students[idx+1:]...)
	if err := r.saveStudents(ctx, next, r.nextAutoID); err != nil {
		return err
	}
	r.students = next
	r.classes = recount(r.classes, r.students)
	return nil
}

func (r *Registry) studentIndex(id string) int {
	for i, s := range r.students {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) Student(id string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.studentIndex(id); idx >= 0 {
		return r.students[idx], nil
	}
	return Student{}, ErrStudentNotFound
}

func (r *Registry) Students() []Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Student, len(r.students))
	copy(out, r.students)
	return out
}

func (r *Registry) StudentsByClass(classID string) []Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Student, 0)
	for _, s := range r.students {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) Counts() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cnt := Counts{Students: len(r.students), Classes: len(r.classes)}
	for _, s := range r.students {
		switch s.Gender {
		case GenderMale:
			cnt.Boys++
		case GenderFemale:
			cnt.Girls++
		}
	}
	return cnt
}
