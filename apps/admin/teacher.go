package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/teacher"
)

// findTeacher looks a teacher up by ID or by AutoID.
func (cli *commandLine) findTeacher(ref string) (teacher.Teacher, error) {
	if autoID, err := strconv.Atoi(ref); err == nil {
		for _, t := range cli.school.Teachers.List() {
			if t.AutoID == autoID {
				return t, nil
			}
		}
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return cli.school.Teachers.Get(ref)
}

func (cli *commandLine) teacherCmd(args []string) error {
	return cli.group("teacher", args, map[string]func([]string) error{
		"add":    cli.teacherAdd,
		"update": cli.teacherUpdate,
		"delete": cli.teacherDelete,
		"list":   cli.teacherList,
		"show":   cli.teacherShow,
	})
}

type teacherFlags struct {
	firstName, lastName, subject, phone, email, birthDate, gender, residence *string
	address, city, qualification                                             *string
}

func (cli *commandLine) teacherFlagSet(name string) (*flag.FlagSet, teacherFlags) {
	fs := cli.newFlagSet(name)
	return fs, teacherFlags{
		firstName:     fs.String("first-name", "", "First name."),
		lastName:      fs.String("last-name", "", "Last name."),
		subject:       fs.String("subject", "", "Subject taught."),
		phone:         fs.String("phone", "", "Phone number."),
		email:         fs.String("email", "", "Email address."),
		birthDate:     fs.String("birth-date", "", "Birth date, YYYY-MM-DD."),
		gender:        fs.String("gender", "", "male or female."),
		residence:     fs.String("residence", "", "Residence."),
		address:       fs.String("address", "", "Optional address."),
		city:          fs.String("city", "", "Optional city."),
		qualification: fs.String("qualification", "", "Optional qualification."),
	}
}

func (cli *commandLine) teacherAdd(args []string) error {
	fs, tf := cli.teacherFlagSet("teacher add")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	tchr, err := cli.school.Teachers.Add(context.Background(), teacher.NewTeacher{
		FirstName:     *tf.firstName,
		LastName:      *tf.lastName,
		Subject:       *tf.subject,
		Phone:         *tf.phone,
		Email:         *tf.email,
		BirthDate:     *tf.birthDate,
		Gender:        *tf.gender,
		Residence:     *tf.residence,
		Address:       *tf.address,
		City:          *tf.city,
		Qualification: *tf.qualification,
	})
	if err != nil {
		return err
	}
	cli.printf("teacher %q added (#%d, %s)\n", tchr.FullName(), tchr.AutoID, tchr.ID)
	return nil
}

func (cli *commandLine) teacherUpdate(args []string) error {
	fs, tf := cli.teacherFlagSet("teacher update")
	ref := fs.String("teacher", "", "The teacher ID or number.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	tchr, err := cli.findTeacher(*ref)
	if err != nil {
		return err
	}

	ut := teacher.UpdateTeacher{
		FirstName: *tf.firstName,
		LastName:  *tf.lastName,
		Subject:   *tf.subject,
		Phone:     *tf.phone,
		Email:     *tf.email,
		BirthDate: *tf.birthDate,
		Gender:    *tf.gender,
		Residence: *tf.residence,
	}
	// optional fields are cleared with an explicit empty value, eg. -city ""
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			ut.Address = tf.address
		case "city":
			ut.City = tf.city
		case "qualification":
			ut.Qualification = tf.qualification
		}
	})
	if tchr, err = cli.school.Teachers.Update(context.Background(), tchr.ID, ut); err != nil {
		return err
	}
	cli.printf("teacher %q updated\n", tchr.FullName())
	return nil
}

func (cli *commandLine) teacherDelete(args []string) error {
	fs := cli.newFlagSet("teacher delete")
	ref := fs.String("teacher", "", "The teacher ID or number. Their schedule is deleted too.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	tchr, err := cli.findTeacher(*ref)
	if err != nil {
		return err
	}
	if err := cli.school.Teachers.Delete(context.Background(), tchr.ID); err != nil {
		return err
	}
	cli.printf("teacher %q deleted\n", tchr.FullName())
	return nil
}

func (cli *commandLine) teacherList([]string) error {
	teachers := cli.school.Teachers.List()
	rows := make([]string, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s", t.AutoID, t.FullName(), t.Subject, t.Phone, t.Email, t.ID))
	}
	cli.table("#\tNAME\tSUBJECT\tPHONE\tEMAIL\tID", rows)
	return nil
}

func (cli *commandLine) teacherShow(args []string) error {
	fs := cli.newFlagSet("teacher show")
	ref := fs.String("teacher", "", "The teacher ID or number.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	tchr, err := cli.findTeacher(*ref)
	if err != nil {
		return err
	}
	ws, err := cli.school.Teachers.WithSchedule(tchr.ID)
	if err != nil {
		return err
	}
	cli.printf("#%d %s (%s)\n", ws.AutoID, ws.FullName(), ws.Subject)
	cli.printf("phone: %s, email: %s\n", ws.Phone, ws.Email)
	cli.printf("born: %s, residence: %s\n", ws.BirthDate, ws.Residence)
	if ws.Qualification.Valid {
		cli.printf("qualification: %s\n", ws.Qualification.String)
	}
	cli.printSlots(ws.Schedule, schedule.ScopeTeacher)
	return nil
}

// Schedules

// slotsFlag collects repeated -slot values.
type slotsFlag []string

func (f *slotsFlag) String() string { return strings.Join(*f, "; ") }

func (f *slotsFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func (cli *commandLine) scheduleCmd(args []string) error {
	return cli.group("schedule", args, map[string]func([]string) error{
		"class":   cli.scheduleClass,
		"teacher": cli.scheduleTeacher,
		"show":    cli.scheduleShow,
	})
}

func splitSlot(v string, n int) ([]string, error) {
	parts := strings.Split(v, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid slot %q: expected %d comma separated values", v, n)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (cli *commandLine) scheduleClass(args []string) error {
	fs := cli.newFlagSet("schedule class")
	ref := fs.String("class", "", "The class ID or name.")
	var slots slotsFlag
	fs.Var(&slots, "slot", `A slot as "Day,HH:MM,HH:MM,Subject,Teacher" (teacher ID or number). Repeatable; replaces the whole schedule.`)
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

	batch := make([]schedule.NewSlot, 0, len(slots))
	for _, v := range slots {
		parts, err := splitSlot(v, 5)
		if err != nil {
			return err
		}
		tchr, err := cli.findTeacher(parts[4])
		if err != nil {
			return err
		}
		batch = append(batch, schedule.NewSlot{
			Day: parts[0], StartTime: parts[1], EndTime: parts[2], Subject: parts[3], TeacherID: tchr.ID,
		})
	}
	saved, err := cli.school.ClassSchedules.ReplaceSlotsForOwner(context.Background(), class.ID, batch)
	if err != nil {
		return err
	}
	cli.printf("schedule of %q saved (%d slots)\n", class.Name, len(saved))
	return nil
}

func (cli *commandLine) scheduleTeacher(args []string) error {
	fs := cli.newFlagSet("schedule teacher")
	ref := fs.String("teacher", "", "The teacher ID or number.")
	var slots slotsFlag
	fs.Var(&slots, "slot", `A slot as "Day,HH:MM,HH:MM,Class". Repeatable; replaces the whole schedule.`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	tchr, err := cli.findTeacher(*ref)
	if err != nil {
		return err
	}

	batch := make([]schedule.NewSlot, 0, len(slots))
	for _, v := range slots {
		parts, err := splitSlot(v, 4)
		if err != nil {
			return err
		}
		batch = append(batch, schedule.NewSlot{
			Day: parts[0], StartTime: parts[1], EndTime: parts[2], ClassName: parts[3], TeacherID: tchr.ID,
		})
	}
	saved, err := cli.school.TeacherSchedules.ReplaceSlotsForOwner(context.Background(), tchr.ID, batch)
	if err != nil {
		return err
	}
	cli.printf("schedule of %q saved (%d slots)\n", tchr.FullName(), len(saved))
	return nil
}

func (cli *commandLine) scheduleShow(args []string) error {
	fs := cli.newFlagSet("schedule show")
	classRef := fs.String("class", "", "The class ID or name.")
	teacherRef := fs.String("teacher", "", "The teacher ID or number.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	switch {
	case *classRef != "":
		class, err := cli.findClass(*classRef)
		if err != nil {
			return err
		}
		slots := cli.school.ClassSchedules.ListByOwner(class.ID)
		schedule.SortByStart(slots)
		cli.printSlots(slots, schedule.ScopeClass)
	case *teacherRef != "":
		tchr, err := cli.findTeacher(*teacherRef)
		if err != nil {
			return err
		}
		slots := cli.school.TeacherSchedules.ListByOwner(tchr.ID)
		schedule.SortByStart(slots)
		cli.printSlots(slots, schedule.ScopeTeacher)
	default:
		fs.Usage()
		return errHelp
	}
	return nil
}

func (cli *commandLine) printSlots(slots []schedule.Slot, scope schedule.Scope) {
	names := make(map[string]string)
	for _, t := range cli.school.Teachers.List() {
		names[t.ID] = t.FullName()
	}
	rows := make([]string, 0, len(slots))
	for _, s := range slots {
		label := s.Subject + "\t" + names[s.TeacherID]
		if scope == schedule.ScopeTeacher {
			label = s.ClassName + "\t"
		}
		rows = append(rows, fmt.Sprintf("%s\t%s-%s\t%s\t%s", s.Day, s.StartTime, s.EndTime, label, s.ID))
	}
	cli.table("DAY\tTIME\tLABEL\tTEACHER\tSLOT", rows)
}
