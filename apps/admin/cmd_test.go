package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grading"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/school"
	"github.com/trezcool/ecole/core/settings"
	"github.com/trezcool/ecole/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	sch, _, _ := testutil.NewSchool(t)
	out := new(bytes.Buffer)
	return &commandLine{school: sch, out: out}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error    // matched with errors.Is
	wantErrStr string   // matched as a substring
	wantFlag   string   // flag named by the *apps.ArgumentError
	wantOut    string   // matched as a substring
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if tt.wantFlag != "" {
				var argErr *apps.ArgumentError
				if assert.True(t, errors.As(err, &argErr)) {
					assert.Equal(t, tt.wantFlag, argErr.Flag)
				}
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"class"}, wantErr: errHelp, wantOut: "class add|delete|list|rename"},
		{name: "unknown subcommand", args: []string{"student", "lol"}, wantErr: errHelp},
		{name: "missing flag", args: []string{"class", "add"}, wantErr: errHelp, wantOut: "-name"},
		{name: "help flag", args: []string{"teacher", "add", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"class", "add", "-lol"}, wantErrStr: "flag provided but not defined"},
	})
}

func Test_commandLine_class(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "add", args: []string{"class", "add", "-name", "6ème A"}, wantOut: `class "6ème A" added`},
		{name: "add duplicate", args: []string{"class", "add", "-name", "6ÈME A"}, wantErr: school.ErrClassExists},
		{name: "rename by name", args: []string{"class", "rename", "-class", "6ème a", "-name", "6ème B"}, wantOut: `renamed to "6ème B"`},
		{name: "unknown class with suggestion", args: []string{"class", "delete", "-class", "6eme B"}, wantErrStr: `did you mean "6ème B"?`},
		{name: "unknown class", args: []string{"class", "delete", "-class", "Terminale"}, wantErr: school.ErrClassNotFound},
		{name: "list", args: []string{"class", "list"}, wantOut: "6ème B"},
		{name: "delete", args: []string{"class", "delete", "-class", "6ème B"}, wantOut: `class "6ème B" deleted`},
	})
	assert.Empty(t, cli.school.Registry.Classes())
}

func Test_commandLine_student(t *testing.T) {
	cli, out := setup(t)
	testutil.CreateClass(t, cli.school.Registry, "6ème A")
	testutil.CreateClass(t, cli.school.Registry, "5ème A")

	register := []string{"student", "register",
		"-first-name", "Grace", "-last-name", "Mbuyi", "-birth-date", "2012-03-14", "-birth-place", "Kinshasa",
		"-parent-phone", "+243 810 000 000", "-gender", "female"}

	runTests(t, cli, out, []cliTest{
		{name: "no class", args: register, wantErr: errHelp},
		{name: "unknown class", args: append(register, "-class", "4ème A"), wantErr: school.ErrClassNotFound},
		{name: "invalid birth date", args: append(register[:6:6], "-birth-date", "14/03/2012", "-class", "6ème A"), wantErrStr: "birth_date"},
		{name: "register", args: append(register, "-class", "6ème A"), wantOut: `student "Grace Mbuyi" registered (#1`},
		{name: "list", args: []string{"student", "list", "-class", "6ème A"}, wantOut: "Grace Mbuyi"},
		{name: "cannot delete a class with students", args: []string{"class", "delete", "-class", "6ème A"}, wantErr: school.ErrClassNotEmpty},
		{name: "update", args: []string{"student", "update", "-student", "1", "-last-name", "Kabongo", "-class", "5ème A"}, wantOut: `"Grace Kabongo" updated`},
		{name: "update unknown", args: []string{"student", "update", "-student", "42"}, wantErr: school.ErrStudentNotFound},
		{name: "delete", args: []string{"student", "delete", "-student", "1"}, wantOut: "deleted"},
	})
	assert.Empty(t, cli.school.Registry.Students())
}

func Test_commandLine_teacherAndSchedule(t *testing.T) {
	cli, out := setup(t)
	class := testutil.CreateClass(t, cli.school.Registry, "6ème A")

	runTests(t, cli, out, []cliTest{
		{name: "add invalid", args: []string{"teacher", "add", "-first-name", "Jean"}, wantErrStr: "last_name"},
		{name: "add", args: []string{"teacher", "add",
			"-first-name", "Jean", "-last-name", "Kabila", "-subject", "Mathématiques", "-phone", "+243 820 000 000",
			"-email", "jean@ecole.test", "-birth-date", "1985-06-01", "-gender", "male", "-residence", "Gombe",
			"-city", "Kinshasa"}, wantOut: `teacher "Jean Kabila" added (#1`},
		{name: "update", args: []string{"teacher", "update", "-teacher", "1", "-subject", "Physique", "-city", ""}, wantOut: "updated"},
		{name: "class schedule: bad slot", args: []string{"schedule", "class", "-class", "6ème A", "-slot", "Lundi,08:00"}, wantErrStr: "expected 5 comma separated values"},
		{name: "class schedule: no slot", args: []string{"schedule", "class", "-class", "6ème A"}, wantErr: schedule.ErrNoSlots},
		{name: "class schedule: overlap", args: []string{"schedule", "class", "-class", "6ème A",
			"-slot", "Lundi,08:00,10:00,Maths,1", "-slot", "Lundi,09:00,11:00,Physique,1"}, wantErr: schedule.ErrConflict},
		{name: "class schedule", args: []string{"schedule", "class", "-class", "6ème A",
			"-slot", "Mardi,10:00,12:00,Physique,1", "-slot", "Lundi,08:00,10:00,Maths,1"}, wantOut: "(2 slots)"},
		{name: "teacher schedule", args: []string{"schedule", "teacher", "-teacher", "1", "-slot", "Lundi,08:00,10:00,6ème A"}, wantOut: "(1 slots)"},
		{name: "show class schedule", args: []string{"schedule", "show", "-class", "6ème A"}, wantOut: "Jean Kabila"},
		{name: "show nothing", args: []string{"schedule", "show"}, wantErr: errHelp},
		{name: "show teacher", args: []string{"teacher", "show", "-teacher", "1"}, wantOut: "6ème A"},
		{name: "list", args: []string{"teacher", "list"}, wantOut: "Physique"},
	})

	slots := cli.school.ClassSchedules.ListByOwner(class.ID)
	require.Len(t, slots, 2)
	schedule.SortByStart(slots)
	assert.Equal(t, "Lundi", slots[0].Day)

	tchr, err := cli.findTeacher("1")
	require.NoError(t, err)
	assert.False(t, tchr.City.Valid)

	runTests(t, cli, out, []cliTest{
		{name: "delete", args: []string{"teacher", "delete", "-teacher", tchr.ID}, wantOut: "deleted"},
	})
	assert.Empty(t, cli.school.TeacherSchedules.ListByOwner(tchr.ID))
}

func Test_commandLine_attendance(t *testing.T) {
	cli, out := setup(t)
	class := testutil.CreateClass(t, cli.school.Registry, "6ème A")
	stud := testutil.CreateStudent(t, cli.school.Registry, class.ID, "Grace", "Mbuyi")
	testutil.CreateStudent(t, cli.school.Registry, class.ID, "Patrick", "Ilunga")
	tchr := testutil.CreateTeacher(t, cli.school.Teachers, "Jean", "Kabila", "Mathématiques")
	slots, err := cli.school.ClassSchedules.ReplaceSlotsForOwner(context.Background(), class.ID, []schedule.NewSlot{
		{Day: "Lundi", StartTime: "08:00", EndTime: "10:00", Subject: "Maths", TeacherID: tchr.ID},
	})
	require.NoError(t, err)
	slotID := slots[0].ID

	// 2024-09-02 is a Monday
	runTests(t, cli, out, []cliTest{
		{name: "no subject", args: []string{"attendance", "mark", "-slot", slotID, "-status", "absent"}, wantErr: errHelp},
		{name: "both subjects", args: []string{"attendance", "mark", "-slot", slotID, "-status", "absent", "-student", "1", "-teacher", tchr.ID}, wantErrStr: "mutually exclusive", wantFlag: "teacher"},
		{name: "unknown slot", args: []string{"attendance", "mark", "-slot", "lol", "-status", "absent", "-student", "1"}, wantErr: errSlotNotFound},
		{name: "invalid status", args: []string{"attendance", "mark", "-slot", slotID, "-date", "2024-09-02", "-status", "sick", "-student", "1"}, wantErrStr: "status"},
		{name: "mark", args: []string{"attendance", "mark", "-slot", slotID, "-date", "2024-09-02", "-status", "absent",
			"-student", "1", "-justification", "Malade"}, wantOut: "Grace Mbuyi marked absent on 2024-09-02"},
		{name: "show", args: []string{"attendance", "show", "-class", "6ème A", "-date", "2024-09-02"}, wantOut: "1 present, 1 absent, 0 late, 0 dismissed"},
		{name: "show no class that day", args: []string{"attendance", "show", "-class", "6ème A", "-date", "2024-09-03"}, wantOut: "no class for"},
		{name: "show invalid date", args: []string{"attendance", "show", "-class", "6ème A", "-date", "lol"}, wantErrStr: "invalid date"},
		{name: "week", args: []string{"attendance", "week", "-student", stud.ID, "-date", "2024-09-07"}, wantOut: "Malade"},
	})
}

func Test_commandLine_grade(t *testing.T) {
	cli, out := setup(t)
	class := testutil.CreateClass(t, cli.school.Registry, "6ème A")
	testutil.CreateStudent(t, cli.school.Registry, class.ID, "Grace", "Mbuyi")

	runTests(t, cli, out, []cliTest{
		{name: "add subject: bad semester", args: []string{"grade", "subject-add", "-class", "6ème A", "-name", "Maths", "-semester", "3"}, wantErr: grading.ErrInvalidSemester},
		{name: "add subject", args: []string{"grade", "subject-add", "-class", "6ème A", "-name", "Maths", "-coefficient", "2"}, wantOut: `subject "Maths" added`},
	})
	subjects := cli.school.Grades.SubjectsByClassAndSemester(class.ID, grading.Semester1)
	require.Len(t, subjects, 1)
	subjID := subjects[0].ID

	runTests(t, cli, out, []cliTest{
		{name: "subjects", args: []string{"grade", "subjects", "-class", "6ème A"}, wantOut: "Maths"},
		{name: "set: out of range", args: []string{"grade", "set", "-student", "1", "-subject", subjID, "-value", "25"}, wantErrStr: "value"},
		{name: "set: not a number", args: []string{"grade", "set", "-student", "1", "-subject", subjID, "-value", "lol"}, wantErrStr: "invalid grade", wantFlag: "value"},
		{name: "set: unknown subject", args: []string{"grade", "set", "-student", "1", "-subject", "lol", "-value", "12"}, wantErr: grading.ErrSubjectNotFound},
		{name: "set devoir 2", args: []string{"grade", "set", "-student", "1", "-subject", subjID, "-number", "2", "-value", "15,5"}, wantOut: "15.5/20"},
		{name: "set composition", args: []string{"grade", "set", "-student", "1", "-subject", subjID, "-type", "composition", "-value", "12"}, wantOut: "12/20"},
		{name: "show", args: []string{"grade", "show", "-subject", subjID}, wantOut: "DEVOIR 2"},
		{name: "delete subject", args: []string{"grade", "subject-delete", "-subject", subjID}, wantOut: "deleted"},
	})
	assert.Empty(t, cli.school.Grades.GradesBySubject(subjID))
}

func Test_commandLine_settings(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "show defaults", args: []string{"settings", "show"}, wantOut: "school name: École Sans Base"},
		{name: "set nothing", args: []string{"settings", "set"}, wantErr: errHelp},
		{name: "invalid theme", args: []string{"settings", "set", "-theme", "pink"}, wantErrStr: "theme"},
		{name: "set", args: []string{"settings", "set", "-school-name", "Complexe Scolaire Lumière", "-theme", "dark", "-sidebar=false"}, wantOut: "theme: dark"},
	})

	st := cli.school.Settings.Get()
	assert.Equal(t, "Complexe Scolaire Lumière", st.SchoolName)
	assert.Equal(t, settings.ThemeDark, st.Theme)
	assert.False(t, st.SidebarVisible)
	assert.Equal(t, "", st.SchoolLocation)
}

func Test_commandLine_receipt(t *testing.T) {
	cli, out := setup(t)
	core.NowFunc = func() time.Time { return time.Date(2024, 9, 2, 10, 30, 0, 0, time.UTC) }
	defer func() { core.NowFunc = time.Now }()
	class := testutil.CreateClass(t, cli.school.Registry, "6ème A")
	stud := testutil.CreateStudent(t, cli.school.Registry, class.ID, "Grace", "Mbuyi")

	dir, err := ioutil.TempDir("", "ecole-receipts")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	runTests(t, cli, out, []cliTest{
		{name: "unknown format", args: []string{"receipt", "-student", "1", "-format", "docx", "-out", dir}, wantErrStr: `unknown receipt format "docx"`, wantFlag: "format"},
		{name: "email without office email", args: []string{"receipt", "-student", "1", "-email"}, wantErr: apps.ErrNoOfficeEmail},
		{name: "html", args: []string{"receipt", "-student", "1", "-format", "html", "-out", dir}, wantOut: "receipt written to"},
		{name: "pdf", args: []string{"receipt", "-student", stud.ID, "-out", dir}, wantOut: "receipt written to"},
	})

	data, err := cli.school.Receipt(stud.ID)
	require.NoError(t, err)
	html, err := ioutil.ReadFile(filepath.Join(dir, data.Filename()+".html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Grace Mbuyi")
	pdf, err := ioutil.ReadFile(filepath.Join(dir, data.Filename()+".pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func Test_commandLine_reset(t *testing.T) {
	cli, out := setup(t)
	testutil.CreateClass(t, cli.school.Registry, "6ème A")

	origTerm, origRead := isTerminalFunc, readLineFunc
	defer func() { isTerminalFunc, readLineFunc = origTerm, origRead }()

	var argErr *apps.ArgumentError
	isTerminalFunc = func(int) bool { return false }
	err := cli.run([]string{"admin", "reset"})
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "force", argErr.Flag)
	assert.Len(t, cli.school.Registry.Classes(), 1)

	isTerminalFunc = func(int) bool { return true }
	readLineFunc = func() (string, error) { return "no", nil }
	err = cli.run([]string{"admin", "reset"})
	assert.True(t, errors.As(err, &argErr))
	assert.Len(t, cli.school.Registry.Classes(), 1)

	readLineFunc = func() (string, error) { return "YES", nil }
	require.NoError(t, cli.run([]string{"admin", "reset"}))
	assert.Empty(t, cli.school.Registry.Classes())

	testutil.CreateClass(t, cli.school.Registry, "6ème A")
	runTests(t, cli, out, []cliTest{
		{name: "force", args: []string{"reset", "-force"}, wantOut: "all data deleted"},
		{name: "stats", args: []string{"stats"}, wantOut: "classes: 0"},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "not postgres", args: []string{"migrate", "up"}, wantErrStr: "only apply to the postgres storage engine"},
	})

	var got [][]string
	cli.migrate = func(command string, args ...string) error {
		got = append(got, append([]string{command}, args...))
		return nil
	}
	runTests(t, cli, out, []cliTest{
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}, wantErrStr: `"create" is not supported`},
	})
	assert.Equal(t, [][]string{{"up"}, {"down-to", "1"}}, got)
}
