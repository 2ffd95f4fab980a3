package grading

import (
	"context"
	"sort"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

const (
	SubjectsKey = "grade-subjects"
	GradesKey   = "grades"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrInvalidSemester = errors.New("semester must be 1 or 2")
)

type Store struct {
	kv  core.KVStore
	log core.Logger

	mu       sync.RWMutex
	subjects []Subject
	grades   []Grade
}

func NewStore(kv core.KVStore, logger core.Logger) *Store {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Store{kv: kv, log: logger}
}

// Init (re)loads subjects and grades. Unreadable data is logged and treated as empty.
func (s *Store) Init(ctx context.Context) error {
	var (
		subjects []Subject
		grades   []Grade
	)
	if _, err := core.LoadOrReset(ctx, s.kv, s.log, SubjectsKey, &subjects); err != nil {
		return err
	}
	if _, err := core.LoadOrReset(ctx, s.kv, s.log, GradesKey, &grades); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = subjects
	s.grades = grades
	return nil
}

// Subjects

func (s *Store) AddSubject(ctx context.Context, classID string, sem Semester, ns NewSubject) (Subject, error) {
	if sem != Semester1 && sem != Semester2 {
		return Subject{}, core.NewValidationError(ErrInvalidSemester, core.FieldError{Field: "semester", Error: ErrInvalidSemester.Error()})
	}
	classID = core.CleanString(classID)
	if classID == "" {
		return Subject{}, core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "class_id is required"})
	}
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := Subject{ID: core.NewID(), Name: ns.Name, Coefficient: ns.Coefficient, ClassID: classID, Semester: sem}
	next := make([]Subject, 0, len(s.subjects)+1)
	next = append(next, s.subjects...)
	next = append(next, sub)
	if err := core.SaveJSON(ctx, s.kv, SubjectsKey, next); err != nil {
		return Subject{}, err
	}
	s.subjects = next
	return sub, nil
}

// DeleteSubject removes the subject along with its grades.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sub := range s.subjects {
		if sub.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrSubjectNotFound
	}
	nextSubjects := make([]Subject, 0, len(s.subjects)-1)
	nextSubjects = append(nextSubjects, s.subjects[:idx]...)
	nextSubjects = append(nextSubjects, s.subjects[idx+1:]...)
	nextGrades := make([]Grade, 0, len(s.grades))
	for _, g := range s.grades {
		if g.SubjectID != id {
			nextGrades = append(nextGrades, g)
		}
	}

	if err := core.SaveJSON(ctx, s.kv, SubjectsKey, nextSubjects); err != nil {
		return err
	}
	s.subjects = nextSubjects

	if len(nextGrades) == len(s.grades) {
		return nil
	}
	if err := core.SaveJSON(ctx, s.kv, GradesKey, nextGrades); err != nil {
		return errors.Wrap(err, "deleting subject grades")
	}
	s.grades = nextGrades
	return nil
}

func (s *Store) Subject(id string) (Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subjects {
		if sub.ID == id {
			return sub, nil
		}
	}
	return Subject{}, ErrSubjectNotFound
}

func (s *Store) SubjectsByClassAndSemester(classID string, sem Semester) []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subject, 0)
	for _, sub := range s.subjects {
		if sub.ClassID == classID && sub.Semester == sem {
			out = append(out, sub)
		}
	}
	return out
}

// Grades

// UpsertGrade stores `value` for the (student, subject, type, number) tuple, replacing the
// value of an existing grade. The value is stored as is; see SubmitGrade for range checks.
func (s *Store) UpsertGrade(ctx context.Context, studentID, subjectID string, typ AssessmentType, value float64, number int) (Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := GradeKey{StudentID: studentID, SubjectID: subjectID, Type: typ, Number: number}
	var (
		g    Grade
		next []Grade
	)
	if idx := s.gradeIndex(key); idx >= 0 {
		g = s.grades[idx]
		g.Value = value
		next = make([]Grade, len(s.grades))
		copy(next, s.grades)
		next[idx] = g
	} else {
		g = Grade{
			ID:        core.NewID(),
			StudentID: studentID,
			SubjectID: subjectID,
			Type:      typ,
			Number:    number,
			Value:     value,
			CreatedAt: core.NowFunc().UTC(),
		}
		next = make([]Grade, 0, len(s.grades)+1)
		next = append(next, s.grades...)
		next = append(next, g)
	}
	if err := core.SaveJSON(ctx, s.kv, GradesKey, next); err != nil {
		return Grade{}, err
	}
	s.grades = next
	return g, nil
}

// SubmitGrade validates `ng` (value within [0,20], known subject) before upserting it.
func (s *Store) SubmitGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	if _, err := s.Subject(ng.SubjectID); err != nil {
		return Grade{}, core.NewValidationError(err, core.FieldError{Field: "subject_id", Error: err.Error()})
	}
	return s.UpsertGrade(ctx, ng.StudentID, ng.SubjectID, ng.Type, ng.Value, ng.Number)
}

func (s *Store) gradeIndex(key GradeKey) int {
	for i, g := range s.grades {
		if g.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) LookupGrade(studentID, subjectID string, typ AssessmentType, number int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.gradeIndex(GradeKey{StudentID: studentID, SubjectID: subjectID, Type: typ, Number: number}); idx >= 0 {
		return s.grades[idx].Value, true
	}
	return 0, false
}

func (s *Store) filter(keep func(Grade) bool) []Grade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Grade, 0)
	for _, g := range s.grades {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Store) GradesBySubject(subjectID string) []Grade {
	return s.filter(func(g Grade) bool { return g.SubjectID == subjectID })
}

func (s *Store) GradesByStudent(studentID string) []Grade {
	return s.filter(func(g Grade) bool { return g.StudentID == studentID })
}

// DevoirNumbers returns the sorted devoir columns of a subject's grade sheet; column 1 always shows.
func (s *Store) DevoirNumbers(subjectID string) []int {
	seen := map[int]bool{1: true}
	for _, g := range s.GradesBySubject(subjectID) {
		if g.Type == TypeDevoir && g.Number > 0 {
			seen[g.Number] = true
		}
	}
	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
