package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/school"
)

// findClass looks a class up by ID, then by name, suggesting close names when none matches.
func (cli *commandLine) findClass(ref string) (school.SchoolClass, error) {
	reg := cli.school.Registry
	if class, err := reg.Class(ref); err == nil {
		return class, nil
	}
	class, err := reg.ClassByName(ref)
	if err == nil {
		return class, nil
	}

	classes := reg.Classes()
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	if matches := closeMatches(ref, names); len(matches) > 0 {
		return school.SchoolClass{}, errors.Wrapf(err, "%q (did you mean %s?)", ref, quoteJoin(matches, " or "))
	}
	return school.SchoolClass{}, errors.Wrapf(err, "%q", ref)
}

func quoteJoin(elems []string, sep string) string {
	quoted := make([]string, len(elems))
	for i, e := range elems {
		quoted[i] = strconv.Quote(e)
	}
	return strings.Join(quoted, sep)
}

// findStudent looks a student up by ID or by registration number (AutoID).
func (cli *commandLine) findStudent(ref string) (school.Student, error) {
	if autoID, err := strconv.Atoi(ref); err == nil {
		for _, s := range cli.school.Registry.Students() {
			if s.AutoID == autoID {
				return s, nil
			}
		}
		return school.Student{}, school.ErrStudentNotFound
	}
	return cli.school.Registry.Student(ref)
}

func (cli *commandLine) classCmd(args []string) error {
	return cli.group("class", args, map[string]func([]string) error{
		"add":    cli.classAdd,
		"rename": cli.classRename,
		"delete": cli.classDelete,
		"list":   cli.classList,
	})
}

func (cli *commandLine) classAdd(args []string) error {
	fs := cli.newFlagSet("class add")
	name := fs.String("name", "", "The class name, unique regardless of case.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *name); err != nil {
		return err
	}
	class, err := cli.school.Registry.AddClass(context.Background(), *name)
	if err != nil {
		return err
	}
	cli.printf("class %q added (%s)\n", class.Name, class.ID)
	return nil
}

func (cli *commandLine) classRename(args []string) error {
	fs := cli.newFlagSet("class rename")
	ref := fs.String("class", "", "The class ID or current name.")
	name := fs.String("name", "", "The new name.")
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
	if class, err = cli.school.Registry.RenameClass(context.Background(), class.ID, *name); err != nil {
		return err
	}
	cli.printf("class renamed to %q\n", class.Name)
	return nil
}

func (cli *commandLine) classDelete(args []string) error {
	fs := cli.newFlagSet("class delete")
	ref := fs.String("class", "", "The class ID or name. The class must have no students.")
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
	if err := cli.school.Registry.DeleteClass(context.Background(), class.ID); err != nil {
		return err
	}
	cli.printf("class %q deleted\n", class.Name)
	return nil
}

func (cli *commandLine) classList([]string) error {
	classes := cli.school.Registry.Classes()
	rows := make([]string, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, fmt.Sprintf("%s\t%s\t%d", c.ID, c.Name, c.StudentCount))
	}
	cli.table("ID\tNAME\tSTUDENTS", rows)
	return nil
}

func (cli *commandLine) studentCmd(args []string) error {
	return cli.group("student", args, map[string]func([]string) error{
		"register": cli.studentRegister,
		"update":   cli.studentUpdate,
		"delete":   cli.studentDelete,
		"list":     cli.studentList,
	})
}

type studentFlags struct {
	firstName, lastName, birthDate, birthPlace, number, phone, class, gender *string
}

func (cli *commandLine) studentFlagSet(name string) (*flag.FlagSet, studentFlags) {
	fs := cli.newFlagSet(name)
	return fs, studentFlags{
		firstName:  fs.String("first-name", "", "First name."),
		lastName:   fs.String("last-name", "", "Last name."),
		birthDate:  fs.String("birth-date", "", "Birth date, YYYY-MM-DD."),
		birthPlace: fs.String("birth-place", "", "Birth place."),
		number:     fs.String("number", "", "Optional student number."),
		phone:      fs.String("parent-phone", "", "Parent's phone number."),
		class:      fs.String("class", "", "The class ID or name."),
		gender:     fs.String("gender", "", "male or female."),
	}
}

// toNewStudent builds the form from the flags; unset flags keep the values of `base`.
func (cli *commandLine) toNewStudent(sf studentFlags, base school.NewStudent) (school.NewStudent, error) {
	ns := base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&ns.FirstName, *sf.firstName)
	set(&ns.LastName, *sf.lastName)
	set(&ns.BirthDate, *sf.birthDate)
	set(&ns.BirthPlace, *sf.birthPlace)
	set(&ns.StudentNumber, *sf.number)
	set(&ns.ParentPhone, *sf.phone)
	if *sf.gender != "" {
		ns.Gender = school.Gender(*sf.gender)
	}
	if *sf.class != "" {
		class, err := cli.findClass(*sf.class)
		if err != nil {
			return ns, err
		}
		ns.ClassID = class.ID
	}
	return ns, nil
}

func (cli *commandLine) studentRegister(args []string) error {
	fs, sf := cli.studentFlagSet("student register")
	receipt := fs.String("receipt", "", "Also write the registration receipt to this directory.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *sf.class); err != nil {
		return err
	}
	ns, err := cli.toNewStudent(sf, school.NewStudent{})
	if err != nil {
		return err
	}
	stud, err := cli.school.RegisterStudent(context.Background(), ns)
	if err != nil {
		return err
	}
	cli.printf("student %q registered (#%d, %s)\n", stud.FullName(), stud.AutoID, stud.ID)
	if *receipt != "" {
		return cli.writeReceipt(stud.ID, *receipt, "pdf")
	}
	return nil
}

func (cli *commandLine) studentUpdate(args []string) error {
	fs, sf := cli.studentFlagSet("student update")
	ref := fs.String("student", "", "The student ID or registration number.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	stud, err := cli.findStudent(*ref)
	if err != nil {
		return err
	}
	ns, err := cli.toNewStudent(sf, school.NewStudent{
		FirstName:     stud.FirstName,
		LastName:      stud.LastName,
		BirthDate:     stud.BirthDate,
		BirthPlace:    stud.BirthPlace,
		StudentNumber: stud.StudentNumber.String,
		ParentPhone:   stud.ParentPhone,
		ClassID:       stud.ClassID,
		Gender:        stud.Gender,
	})
	if err != nil {
		return err
	}
	if stud, err = cli.school.Registry.UpdateStudent(context.Background(), stud.ID, ns); err != nil {
		return err
	}
	cli.printf("student %q updated\n", stud.FullName())
	return nil
}

func (cli *commandLine) studentDelete(args []string) error {
	fs := cli.newFlagSet("student delete")
	ref := fs.String("student", "", "The student ID or registration number.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required(fs, *ref); err != nil {
		return err
	}
	stud, err := cli.findStudent(*ref)
	if err != nil {
		return err
	}
	if err := cli.school.Registry.DeleteStudent(context.Background(), stud.ID); err != nil {
		return err
	}
	cli.printf("student %q deleted\n", stud.FullName())
	return nil
}

func (cli *commandLine) studentList(args []string) error {
	fs := cli.newFlagSet("student list")
	ref := fs.String("class", "", "Only list the students of this class (ID or name).")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	students := cli.school.Registry.Students()
	if *ref != "" {
		class, err := cli.findClass(*ref)
		if err != nil {
			return err
		}
		students = cli.school.Registry.StudentsByClass(class.ID)
	}
	classNames := make(map[string]string)
	for _, c := range cli.school.Registry.Classes() {
		classNames[c.ID] = c.Name
	}
	rows := make([]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s",
			s.AutoID, s.FullName(), s.BirthDate, s.Gender, classNames[s.ClassID], s.ID))
	}
	cli.table("#\tNAME\tBIRTH DATE\tGENDER\tCLASS\tID", rows)
	return nil
}
