package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/grading"
	"github.com/trezcool/ecole/core/schedule"
)

var errSlotNotFound = errors.New("schedule slot not found")

// Attendance

func (cli *commandLine) attendanceCmd(args []string) error {
	return cli.group("attendance", args, map[string]func([]string) error{
		"mark": cli.attendanceMark,
		"show": cli.attendanceShow,
		"week": cli.attendanceWeek,
	})
}

func (cli *commandLine) attendanceMark(args []string) error {
	fs := cli.newFlagSet("attendance mark")
	slotID := fs.String("slot", "", "The schedule slot ID.")
	date := fs.String("date", core.Today(), "The day, YYYY-MM-DD.")
	status := fs.String("status", "", "present, absent, late or dismissed.")
	studentRef := fs.String("student", "", "The student ID or registration number.")
	teacherRef := fs.String("teacher", "", "The teacher ID or number.")
	justification := fs.String("justification", "", "Optional justification note.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *slotID, *status); err != nil {
		return err
	}

	m := attendance.Mark{
		ScheduleSlotID: *slotID,
		Date:           *date,
		Status:         attendance.Status(*status),
		Justification:  *justification,
	}
	var who string
	switch {
	case *studentRef != "" && *teacherRef != "":
		return apps.NewFlagError("teacher", "mutually exclusive with -student")
	case *studentRef != "":
		stud, err := cli.findStudent(*studentRef)
		if err != nil {
			return err
		}
		if _, ok := cli.school.ClassSchedules.Slot(*slotID); !ok {
			return errSlotNotFound
		}
		m.StudentID, who = stud.ID, stud.FullName()
	case *teacherRef != "":
		tchr, err := cli.findTeacher(*teacherRef)
		if err != nil {
			return err
		}
		if _, ok := cli.school.TeacherSchedules.Slot(*slotID); !ok {
			return errSlotNotFound
		}
		m.TeacherID, who = tchr.ID, tchr.FullName()
	default:
		fs.Usage()
		return errHelp
	}

	rec, err := cli.school.Attendance.Upsert(context.Background(), m)
	if err != nil {
		return err
	}
	cli.printf("%s marked %s on %s\n", who, rec.Status, rec.Date)
	return nil
}

// attendanceShow prints the roll call of a class for each of its slots on a day.
func (cli *commandLine) attendanceShow(args []string) error {
	fs := cli.newFlagSet("attendance show")
	ref := fs.String("class", "", "The class ID or name.")
	date := fs.String("date", core.Today(), "The day, YYYY-MM-DD.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	class, err := cli.findClass(*ref)
	if err != nil {
		return err
	}
	day, err := dayOf(*date)
	if err != nil {
		return err
	}

	students := cli.school.Registry.StudentsByClass(class.ID)
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	var slots []schedule.Slot
	for _, s := range cli.school.ClassSchedules.ListByOwner(class.ID) {
		if s.Day == day {
			slots = append(slots, s)
		}
	}
	schedule.SortByStart(slots)
	if len(slots) == 0 {
		cli.printf("no class for %q on %s (%s)\n", class.Name, *date, day)
		return nil
	}

	for _, slot := range slots {
		t := cli.school.Attendance.SlotTally(slot.ID, *date, ids)
		cli.printf("%s-%s %s: %d present, %d absent, %d late, %d dismissed\n",
			slot.StartTime, slot.EndTime, slot.Subject, t.Present, t.Absent, t.Late, t.Dismissed)
		rows := make([]string, 0, len(students))
		for _, s := range students {
			key := attendance.Key{SlotID: slot.ID, Date: *date, StudentID: s.ID}
			var note string
			if rec, ok := cli.school.Attendance.Lookup(key); ok {
				note = rec.Justification.String
			}
			rows = append(rows, fmt.Sprintf("%d\t%s\t%s\t%s", s.AutoID, s.FullName(), cli.school.Attendance.StatusOf(key), note))
		}
		cli.table("#\tNAME\tSTATUS\tJUSTIFICATION", rows)
	}
	return nil
}

// attendanceWeek prints the records of a student or a teacher over the school week of a day.
func (cli *commandLine) attendanceWeek(args []string) error {
	fs := cli.newFlagSet("attendance week")
	studentRef := fs.String("student", "", "The student ID or registration number.")
	teacherRef := fs.String("teacher", "", "The teacher ID or number.")
	date := fs.String("date", core.Today(), "Any day of the week, YYYY-MM-DD.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	dates, err := attendance.WeekDates(*date)
	if err != nil {
		return err
	}

	var list func(date string) []attendance.Record
	switch {
	case *studentRef != "":
		stud, err := cli.findStudent(*studentRef)
		if err != nil {
			return err
		}
		list = func(date string) []attendance.Record { return cli.school.Attendance.ListByStudent(stud.ID, date) }
	case *teacherRef != "":
		tchr, err := cli.findTeacher(*teacherRef)
		if err != nil {
			return err
		}
		list = func(date string) []attendance.Record { return cli.school.Attendance.ListByTeacher(tchr.ID, date) }
	default:
		fs.Usage()
		return errHelp
	}

	var rows []string
	for i, d := range dates {
		for _, rec := range list(d) {
			rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
				schedule.Days[i], d, rec.Status, rec.Justification.String, rec.ScheduleSlotID))
		}
	}
	cli.table("DAY\tDATE\tSTATUS\tJUSTIFICATION\tSLOT", rows)
	return nil
}

func dayOf(date string) (string, error) {
	t, err := core.ParseDay(date)
	if err != nil {
		return "", err
	}
	return schedule.DayOf(t), nil
}

// Grades

func (cli *commandLine) gradeCmd(args []string) error {
	return cli.group("grade", args, map[string]func([]string) error{
		"subject-add":    cli.gradeSubjectAdd,
		"subject-delete": cli.gradeSubjectDelete,
		"subjects":       cli.gradeSubjects,
		"set":            cli.gradeSet,
		"show":           cli.gradeShow,
	})
}

func (cli *commandLine) gradeSubjectAdd(args []string) error {
	fs := cli.newFlagSet("grade subject-add")
	ref := fs.String("class", "", "The class ID or name.")
	semester := fs.String("semester", "1", "1 or 2.")
	name := fs.String("name", "", "The subject name.")
	coef := fs.Float64("coefficient", 1, "The subject coefficient.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref, *name); err != nil {
		return err
	}
	class, err := cli.findClass(*ref)
	if err != nil {
		return err
	}
	subj, err := cli.school.Grades.AddSubject(context.Background(), class.ID, grading.Semester(*semester),
		grading.NewSubject{Name: *name, Coefficient: *coef})
	if err != nil {
		return err
	}
	cli.printf("subject %q added to %q, semester %s (%s)\n", subj.Name, class.Name, subj.Semester, subj.ID)
	return nil
}

func (cli *commandLine) gradeSubjectDelete(args []string) error {
	fs := cli.newFlagSet("grade subject-delete")
	id := fs.String("subject", "", "The subject ID. Its grades are deleted too.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *id); err != nil {
		return err
	}
	subj, err := cli.school.Grades.Subject(*id)
	if err != nil {
		return err
	}
	if err := cli.school.Grades.DeleteSubject(context.Background(), subj.ID); err != nil {
		return err
	}
	cli.printf("subject %q deleted\n", subj.Name)
	return nil
}

func (cli *commandLine) gradeSubjects(args []string) error {
	fs := cli.newFlagSet("grade subjects")
	ref := fs.String("class", "", "The class ID or name.")
	semester := fs.String("semester", "1", "1 or 2.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	class, err := cli.findClass(*ref)
	if err != nil {
		return err
	}
	subjects := cli.school.Grades.SubjectsByClassAndSemester(class.ID, grading.Semester(*semester))
	rows := make([]string, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, fmt.Sprintf("%s\t%g\t%s", s.Name, s.Coefficient, s.ID))
	}
	cli.table("NAME\tCOEFFICIENT\tID", rows)
	return nil
}

func (cli *commandLine) gradeSet(args []string) error {
	fs := cli.newFlagSet("grade set")
	studentRef := fs.String("student", "", "The student ID or registration number.")
	subjectID := fs.String("subject", "", "The subject ID.")
	typ := fs.String("type", string(grading.TypeDevoir), "devoir or composition.")
	number := fs.Int("number", 1, "The devoir number (ignored for a composition).")
	value := fs.String("value", "", "The grade, from 0 to 20.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *studentRef, *subjectID, *value); err != nil {
		return err
	}
	stud, err := cli.findStudent(*studentRef)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.Replace(*value, ",", ".", 1), 64)
	if err != nil {
		return apps.NewFlagError("value", fmt.Sprintf("invalid grade %q", *value))
	}
	ng := grading.NewGrade{StudentID: stud.ID, SubjectID: *subjectID, Type: grading.AssessmentType(*typ), Number: *number, Value: v}
	if ng.Type == grading.TypeComposition {
		ng.Number = 0
	}
	g, err := cli.school.Grades.SubmitGrade(context.Background(), ng)
	if err != nil {
		return err
	}
	cli.printf("%s: %g/%d\n", stud.FullName(), g.Value, grading.MaxValue)
	return nil
}

// gradeShow prints the grade sheet of a subject: one row per student of its class.
func (cli *commandLine) gradeShow(args []string) error {
	fs := cli.newFlagSet("grade show")
	subjectID := fs.String("subject", "", "The subject ID.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *subjectID); err != nil {
		return err
	}
	subj, err := cli.school.Grades.Subject(*subjectID)
	if err != nil {
		return err
	}

	nums := cli.school.Grades.DevoirNumbers(subj.ID)
	header := []string{"#", "NAME"}
	for _, n := range nums {
		header = append(header, fmt.Sprintf("DEVOIR %d", n))
	}
	header = append(header, "COMPOSITION")

	cell := func(studentID string, typ grading.AssessmentType, number int) string {
		if v, ok := cli.school.Grades.LookupGrade(studentID, subj.ID, typ, number); ok {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return "-"
	}
	var rows []string
	for _, s := range cli.school.Registry.StudentsByClass(subj.ClassID) {
		row := []string{strconv.Itoa(s.AutoID), s.FullName()}
		for _, n := range nums {
			row = append(row, cell(s.ID, grading.TypeDevoir, n))
		}
		row = append(row, cell(s.ID, grading.TypeComposition, 0))
		rows = append(rows, strings.Join(row, "\t"))
	}
	cli.printf("%s (coefficient %g), semester %s\n", subj.Name, subj.Coefficient, subj.Semester)
	cli.table(strings.Join(header, "\t"), rows)
	return nil
}
