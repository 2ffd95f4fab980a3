package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/school"
	"github.com/trezcool/ecole/core/teacher"
	inmemdb "github.com/trezcool/ecole/storage/database/inmem"
)

var ErrWriteFailed = errors.New("write failed")

// LogEntry is one call to Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records what is logged instead of printing it.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Count returns the number of entries logged at `level`.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// FailingKV wraps a KVStore; writes fail while FailWrites is set, or for the keys passed to FailKey.
type FailingKV struct {
	core.KVStore

	mu         sync.Mutex
	FailWrites bool
	failKeys   map[string]bool
}

func (kv *FailingKV) SetFailWrites(fail bool) {
	kv.mu.Lock()
	kv.FailWrites = fail
	kv.mu.Unlock()
}

// FailKey makes writes to `key` fail (or succeed again when `fail` is false).
func (kv *FailingKV) FailKey(key string, fail bool) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.failKeys == nil {
		kv.failKeys = make(map[string]bool)
	}
	kv.failKeys[key] = fail
}

func (kv *FailingKV) failing(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.FailWrites || kv.failKeys[key]
}

func (kv *FailingKV) Put(ctx context.Context, key string, value []byte) error {
	if kv.failing(key) {
		return ErrWriteFailed
	}
	return kv.KVStore.Put(ctx, key, value)
}

func (kv *FailingKV) Delete(ctx context.Context, key string) error {
	if kv.failing(key) {
		return ErrWriteFailed
	}
	return kv.KVStore.Delete(ctx, key)
}

// NewKV returns an in-memory store wrapped for failure injection.
func NewKV() *FailingKV {
	return &FailingKV{KVStore: inmemdb.Open()}
}

// PutRaw stores `data` as is under `key`.
func PutRaw(t *testing.T, kv core.KVStore, key, data string) {
	if err := kv.Put(context.Background(), key, []byte(data)); err != nil {
		t.Fatalf("PutRaw() failed: %v", err)
	}
}

// NewSchool returns an initialized School over a fresh in-memory store.
func NewSchool(t *testing.T) (*apps.School, *FailingKV, *Logger) {
	kv := NewKV()
	logger := new(Logger)
	sch := apps.NewSchool(kv, logger, nil)
	if err := sch.Init(context.Background()); err != nil {
		t.Fatalf("School.Init() failed: %v", err)
	}
	return sch, kv, logger
}

func CreateClass(t *testing.T, reg *school.Registry, name string) school.SchoolClass {
	class, err := reg.AddClass(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func NewStudent(classID, firstName, lastName string) school.NewStudent {
	return school.NewStudent{
		FirstName:   firstName,
		LastName:    lastName,
		BirthDate:   "2012-03-14",
		BirthPlace:  "Kinshasa",
		ParentPhone: "+243 810 000 000",
		ClassID:     classID,
		Gender:      school.GenderFemale,
	}
}

func CreateStudent(t *testing.T, reg *school.Registry, classID, firstName, lastName string) school.Student {
	stud, err := reg.AddStudent(context.Background(), NewStudent(classID, firstName, lastName))
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stud
}

func NewTeacher(firstName, lastName, subject string) teacher.NewTeacher {
	return teacher.NewTeacher{
		FirstName: firstName,
		LastName:  lastName,
		Subject:   subject,
		Phone:     "+243 820 000 000",
		Email:     fmt.Sprintf("%s.%s@ecole.test", firstName, lastName),
		BirthDate: "1985-06-01",
		Gender:    "male",
		Residence: "Gombe",
	}
}

func CreateTeacher(t *testing.T, svc *teacher.Service, firstName, lastName, subject string) teacher.Teacher {
	tchr, err := svc.Add(context.Background(), NewTeacher(firstName, lastName, subject))
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}
