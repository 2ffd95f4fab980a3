package apps

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/grading"
	"github.com/trezcool/ecole/core/receipt"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/school"
	"github.com/trezcool/ecole/core/settings"
	"github.com/trezcool/ecole/core/teacher"
)

var ErrNoOfficeEmail = errors.New("no office email configured in the settings")

// StorageKeys lists every key the stores persist to.
var StorageKeys = []string{
	school.ClassesKey,
	school.StudentsKey,
	teacher.StorageKey,
	schedule.ClassKey,
	schedule.TeacherKey,
	attendance.StorageKey,
	grading.SubjectsKey,
	grading.GradesKey,
	settings.StorageKey,
}

// School owns every store over one key-value store. It is built once per process.
type School struct {
	KV     core.KVStore
	Logger core.Logger
	Mailer core.EmailService

	Registry         *school.Registry
	Teachers         *teacher.Service
	ClassSchedules   *schedule.Store
	TeacherSchedules *schedule.Store
	Attendance       *attendance.Store
	Grades           *grading.Store
	Settings         *settings.Store
}

// Stats feeds the dashboard.
type Stats struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Classes  int `json:"classes"`
	Boys     int `json:"boys"`
	Girls    int `json:"girls"`
}

// NewSchool wires the stores; call Init before use. `mailer` may be nil.
func NewSchool(kv core.KVStore, logger core.Logger, mailer core.EmailService) *School {
	classSchedules := schedule.NewClassStore(kv, logger)
	teacherSchedules := schedule.NewTeacherStore(kv, logger)
	return &School{
		KV:               kv,
		Logger:           logger,
		Mailer:           mailer,
		Registry:         school.NewRegistry(kv, logger, classSchedules),
		Teachers:         teacher.NewService(kv, logger, teacherSchedules),
		ClassSchedules:   classSchedules,
		TeacherSchedules: teacherSchedules,
		Attendance:       attendance.NewStore(kv, logger),
		Grades:           grading.NewStore(kv, logger),
		Settings:         settings.NewStore(kv, logger),
	}
}

// Init (re)loads every store from the key-value store.
func (s *School) Init(ctx context.Context) error {
	inits := []struct {
		name string
		init func(context.Context) error
	}{
		{"classes & students", s.Registry.Init},
		{"teachers", s.Teachers.Init},
		{"class schedules", s.ClassSchedules.Init},
		{"teacher schedules", s.TeacherSchedules.Init},
		{"attendance", s.Attendance.Init},
		{"grades", s.Grades.Init},
		{"settings", s.Settings.Init},
	}
	for _, i := range inits {
		if err := i.init(ctx); err != nil {
			return errors.Wrapf(err, "loading %s", i.name)
		}
	}
	return nil
}

// Reset wipes every stored document, then reloads the (now empty) stores.
func (s *School) Reset(ctx context.Context) error {
	for _, key := range StorageKeys {
		if err := s.KV.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "deleting %q", key)
		}
	}
	s.Logger.Info("school data reset")
	return s.Init(ctx)
}

func (s *School) Stats() Stats {
	cnt := s.Registry.Counts()
	return Stats{
		Students: cnt.Students,
		Teachers: s.Teachers.Count(),
		Classes:  cnt.Classes,
		Boys:     cnt.Boys,
		Girls:    cnt.Girls,
	}
}

// Receipt returns the registration receipt of a student, dated now.
func (s *School) Receipt(studentID string) (receipt.Data, error) {
	stud, err := s.Registry.Student(studentID)
	if err != nil {
		return receipt.Data{}, err
	}
	var className string
	if class, err := s.Registry.Class(stud.ClassID); err == nil {
		className = class.Name
	}
	return receipt.NewData(stud, className, s.Settings.Get(), core.NowFunc()), nil
}

// EmailReceipt sends a student's receipt to the office email of the settings.
func (s *School) EmailReceipt(studentID string) error {
	office := s.Settings.Get().OfficeEmail
	if office == "" || s.Mailer == nil {
		return ErrNoOfficeEmail
	}
	data, err := s.Receipt(studentID)
	if err != nil {
		return err
	}
	msg, err := receipt.NewEmail(data, mail.Address{Name: s.Settings.Get().SchoolName, Address: office})
	if err != nil {
		return err
	}
	s.Mailer.SendMessages(msg)
	return nil
}

// RegisterStudent adds a student and, when an office email is set, mails its receipt.
func (s *School) RegisterStudent(ctx context.Context, ns school.NewStudent) (school.Student, error) {
	stud, err := s.Registry.AddStudent(ctx, ns)
	if err != nil {
		return school.Student{}, err
	}
	if err := s.EmailReceipt(stud.ID); err != nil && !errors.Is(err, ErrNoOfficeEmail) {
		s.Logger.Error("emailing registration receipt", err)
	}
	return stud, nil
}
