package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/trezcool/ecole/apps"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	readLineFunc   = readLine        // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	school *apps.School
	out    io.Writer
	// migrate runs a goose command over the database; nil unless the postgres engine is used.
	migrate func(command string, args ...string) error
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  class add|rename|delete|list         - manage classes\n")
	cli.printf("  student register|update|delete|list  - manage students\n")
	cli.printf("  teacher add|update|delete|list|show  - manage teachers\n")
	cli.printf("  schedule class|teacher|show          - replace or print a weekly schedule\n")
	cli.printf("  attendance mark|show|week            - record or print attendance\n")
	cli.printf("  grade subject-add|subject-delete|subjects|set|show - manage subjects and grades\n")
	cli.printf("  settings show|set                    - school settings\n")
	cli.printf("  receipt -student ID                  - write a student's registration receipt\n")
	cli.printf("  stats                                - dashboard counters\n")
	cli.printf("  reset [-force]                       - wipe every stored record\n")
	cli.printf("  migrate COMMAND [ARGS]               - run database migrations (postgres storage only)\n")
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "class":
		return cli.classCmd(args[2:])
	case "student":
		return cli.studentCmd(args[2:])
	case "teacher":
		return cli.teacherCmd(args[2:])
	case "schedule":
		return cli.scheduleCmd(args[2:])
	case "attendance":
		return cli.attendanceCmd(args[2:])
	case "grade":
		return cli.gradeCmd(args[2:])
	case "settings":
		return cli.settingsCmd(args[2:])
	case "receipt":
		return cli.receiptCmd(args[2:])
	case "stats":
		return cli.statsCmd()
	case "reset":
		return cli.resetCmd(args[2:])
	case "migrate":
		return cli.migrateCmd(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// group dispatches `args[0]` to one of `cmds`, printing `usage` when it is missing or unknown.
func (cli *commandLine) group(name string, args []string, cmds map[string]func([]string) error) error {
	if len(args) > 0 {
		if cmd, ok := cmds[args[0]]; ok {
			return cmd(args[1:])
		}
	}
	names := make([]string, 0, len(cmds))
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	cli.printf("Usage:\n  %s %s\n", name, strings.Join(names, "|"))
	return errHelp
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// required prints the flag set usage unless every value is set.
func required(fs *flag.FlagSet, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

// confirm asks for a "yes" on the terminal. Without a terminal, `force` is required.
func (cli *commandLine) confirm(prompt string, force bool) error {
	if force {
		return nil
	}
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return apps.NewFlagError("force", "required when stdin is not a terminal")
	}
	cli.printf("%s [yes/no]: ", prompt)
	answer, err := readLineFunc()
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "yes" {
		return apps.NewArgumentError("aborted")
	}
	return nil
}

// closeMatches returns up to 3 of `choices` that look like `word`, best first.
func closeMatches(word string, choices []string) []string {
	type match struct {
		choice string
		ratio  float64
	}
	var matches []match
	a := strings.Split(strings.ToLower(word), "")
	for _, c := range choices {
		m := difflib.NewMatcher(a, strings.Split(strings.ToLower(c), ""))
		if r := m.Ratio(); r >= 0.6 {
			matches = append(matches, match{c, r})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ratio > matches[j].ratio })

	out := make([]string, 0, 3)
	for i := 0; i < len(matches) && i < 3; i++ {
		out = append(out, matches[i].choice)
	}
	return out
}

// table prints tab separated rows as aligned columns.
func (cli *commandLine) table(header string, rows []string) {
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, header)
	for _, r := range rows {
		_, _ = fmt.Fprintln(w, r)
	}
	_ = w.Flush()
}

func (cli *commandLine) statsCmd() error {
	st := cli.school.Stats()
	cli.printf("students: %d (boys: %d, girls: %d)\n", st.Students, st.Boys, st.Girls)
	cli.printf("teachers: %d\n", st.Teachers)
	cli.printf("classes: %d\n", st.Classes)
	return nil
}
