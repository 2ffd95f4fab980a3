package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core/receipt"
	"github.com/trezcool/ecole/core/settings"
)

func (cli *commandLine) settingsCmd(args []string) error {
	return cli.group("settings", args, map[string]func([]string) error{
		"show": cli.settingsShow,
		"set":  cli.settingsSet,
	})
}

func (cli *commandLine) settingsShow([]string) error {
	st := cli.school.Settings.Get()
	cli.printf("school name: %s\n", st.SchoolName)
	cli.printf("location: %s\n", st.SchoolLocation)
	cli.printf("phone: %s\n", st.SchoolPhone)
	cli.printf("office email: %s\n", st.OfficeEmail)
	cli.printf("theme: %s\n", st.Theme)
	cli.printf("sidebar visible: %t\n", st.SidebarVisible)
	return nil
}

// settingsSet only changes the settings whose flag is given.
func (cli *commandLine) settingsSet(args []string) error {
	fs := cli.newFlagSet("settings set")
	name := fs.String("school-name", "", "The school name.")
	location := fs.String("location", "", "The school location.")
	phone := fs.String("phone", "", "The school phone number.")
	email := fs.String("office-email", "", "Registration receipts are emailed to this address; empty to disable.")
	theme := fs.String("theme", "", "light, dark or system.")
	sidebar := fs.Bool("sidebar", true, "Whether the sidebar is visible.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NFlag() == 0 {
		fs.Usage()
		return errHelp
	}

	var us settings.UpdateSettings
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "school-name":
			us.SchoolName = name
		case "location":
			us.SchoolLocation = location
		case "phone":
			us.SchoolPhone = phone
		case "office-email":
			us.OfficeEmail = email
		case "theme":
			th := settings.Theme(*theme)
			us.Theme = &th
		case "sidebar":
			us.SidebarVisible = sidebar
		}
	})
	if _, err := cli.school.Settings.Update(context.Background(), us); err != nil {
		return err
	}
	return cli.settingsShow(nil)
}

func (cli *commandLine) receiptCmd(args []string) error {
	fs := cli.newFlagSet("receipt")
	ref := fs.String("student", "", "The student ID or registration number.")
	dir := fs.String("out", ".", "The directory to write the receipt to.")
	format := fs.String("format", "pdf", "pdf or html.")
	email := fs.Bool("email", false, "Email the receipt to the office email instead.")
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
	if *email {
		if err := cli.school.EmailReceipt(stud.ID); err != nil {
			return err
		}
		cli.printf("receipt of %q sent to %s\n", stud.FullName(), cli.school.Settings.Get().OfficeEmail)
		return nil
	}
	return cli.writeReceipt(stud.ID, *dir, *format)
}

func (cli *commandLine) writeReceipt(studentID, dir, format string) error {
	render := receipt.RenderPDF
	switch format {
	case "pdf":
	case "html":
		render = receipt.RenderHTML
	default:
		return apps.NewFlagError("format", fmt.Sprintf("unknown receipt format %q", format))
	}

	data, err := cli.school.Receipt(studentID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, data.Filename()+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating receipt file")
	}
	if err := render(f, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	cli.printf("receipt written to %s\n", path)
	return nil
}

func (cli *commandLine) resetCmd(args []string) error {
	fs := cli.newFlagSet("reset")
	force := fs.Bool("force", false, "Do not ask for confirmation.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := cli.confirm("This deletes every class, student, teacher, schedule, grade and attendance record. Continue?", *force); err != nil {
		return err
	}
	if err := cli.school.Reset(context.Background()); err != nil {
		return err
	}
	cli.printf("all data deleted\n")
	return nil
}

func (cli *commandLine) migrateCmd(args []string) error {
	if len(args) == 0 {
		cli.printf("Usage:\n  migrate up|up-by-one|up-to|down|down-to|redo|reset|status|version [ARGS]\n")
		return errHelp
	}
	if cli.migrate == nil {
		return errors.New("migrations only apply to the postgres storage engine")
	}
	if args[0] == "create" || args[0] == "fix" {
		// migrations are embedded in the binary
		return errors.Errorf("%q is not supported: add the sql file under storage/database/migrations", args[0])
	}
	return cli.migrate(args[0], args[1:]...)
}

