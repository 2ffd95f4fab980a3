package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/grading"
	"github.com/trezcool/ecole/core/schedule"
)

type (
	attendanceApi struct {
		school *apps.School
	}

	// rollCall is the attendance of a class for one of its slots.
	rollCall struct {
		Slot     schedule.Slot       `json:"slot"`
		Tally    attendance.Tally    `json:"tally"`
		Statuses []studentAttendance `json:"statuses"`
	}

	studentAttendance struct {
		StudentID     string            `json:"student_id"`
		Status        attendance.Status `json:"status"`
		Justification string            `json:"justification"`
	}

	weekDay struct {
		Date    string              `json:"date"`
		Day     string              `json:"day"`
		Records []attendance.Record `json:"records"`
	}
)

func registerAttendanceAPI(g *echo.Group, sch *apps.School) {
	api := attendanceApi{school: sch}

	ag := g.Group("/attendance")
	ag.GET("", api.query)
	ag.POST("", api.mark)
	ag.GET("/week", api.week)
	ag.GET("/classes/:id", api.classRollCall)
}

func dateParam(ctx echo.Context) (string, error) {
	date := ctx.QueryParam("date")
	if date == "" {
		return core.Today(), nil
	}
	if _, err := core.ParseDay(date); err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: "date", Error: err.Error()})
	}
	return date, nil
}

func (api *attendanceApi) query(ctx echo.Context) error {
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.school.Attendance.ListByDate(date))
}

// mark upserts a student's or a teacher's attendance; the slot must belong to the matching schedule.
func (api *attendanceApi) mark(ctx echo.Context) error {
	data := new(attendance.Mark)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	slots := api.school.ClassSchedules
	if data.TeacherID != "" {
		if _, err := api.school.Teachers.Get(data.TeacherID); err != nil {
			return err
		}
		slots = api.school.TeacherSchedules
	} else if _, err := api.school.Registry.Student(data.StudentID); err != nil {
		return err
	}
	if _, ok := slots.Slot(data.ScheduleSlotID); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "schedule_slot_id", Error: "schedule slot not found"})
	}

	rec, err := api.school.Attendance.Upsert(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// week lists the records of a student (student_id) or a teacher (teacher_id) for the school week of `date`.
func (api *attendanceApi) week(ctx echo.Context) error {
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	dates, err := attendance.WeekDates(date)
	if err != nil {
		return err
	}

	var list func(string) []attendance.Record
	if id := ctx.QueryParam("teacher_id"); id != "" {
		list = func(d string) []attendance.Record { return api.school.Attendance.ListByTeacher(id, d) }
	} else if id := ctx.QueryParam("student_id"); id != "" {
		list = func(d string) []attendance.Record { return api.school.Attendance.ListByStudent(id, d) }
	} else {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student_id or teacher_id is required"})
	}

	days := make([]weekDay, len(dates))
	for i, d := range dates {
		days[i] = weekDay{Date: d, Day: schedule.Days[i], Records: list(d)}
	}
	return ctx.JSON(http.StatusOK, days)
}

// classRollCall returns, for each slot of the class on `date`, the status of every student.
func (api *attendanceApi) classRollCall(ctx echo.Context) error {
	class, err := api.school.Registry.Class(ctx.Param("id"))
	if err != nil {
		return err
	}
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	t, _ := core.ParseDay(date)
	day := schedule.DayOf(t)

	students := api.school.Registry.StudentsByClass(class.ID)
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	slots := api.school.ClassSchedules.ListByOwner(class.ID)
	schedule.SortByStart(slots)

	calls := make([]rollCall, 0)
	for _, slot := range slots {
		if slot.Day != day {
			continue
		}
		call := rollCall{
			Slot:     slot,
			Tally:    api.school.Attendance.SlotTally(slot.ID, date, ids),
			Statuses: make([]studentAttendance, 0, len(students)),
		}
		for _, id := range ids {
			sa := studentAttendance{StudentID: id, Status: attendance.StatusPresent}
			if rec, ok := api.school.Attendance.Lookup(attendance.Key{SlotID: slot.ID, Date: date, StudentID: id}); ok {
				sa.Status, sa.Justification = rec.Status, rec.Justification.String
			}
			call.Statuses = append(call.Statuses, sa)
		}
		calls = append(calls, call)
	}
	return ctx.JSON(http.StatusOK, calls)
}

// Grades

type (
	gradeApi struct {
		school *apps.School
	}

	subjectRequest struct {
		ClassID     string           `json:"class_id"`
		Semester    grading.Semester `json:"semester"`
		Name        string           `json:"name"`
		Coefficient float64          `json:"coefficient"`
	}

	gradeSheet struct {
		Subject       grading.Subject `json:"subject"`
		DevoirNumbers []int           `json:"devoir_numbers"`
		Grades        []grading.Grade `json:"grades"`
	}
)

func registerGradeAPI(g *echo.Group, sch *apps.School) {
	api := gradeApi{school: sch}

	sg := g.Group("/subjects")
	sg.GET("", api.subjectQuery)
	sg.POST("", api.subjectCreate)
	sg.DELETE("/:id", api.subjectDestroy)
	sg.GET("/:id/grades", api.gradeSheet)

	g.PUT("/grades", api.gradeSubmit)
	g.GET("/students/:id/grades", api.studentGrades)
}

func (api *gradeApi) subjectQuery(ctx echo.Context) error {
	classID := ctx.QueryParam("class_id")
	sem := grading.Semester(ctx.QueryParam("semester"))
	if sem == "" {
		sem = grading.Semester1
	}
	return ctx.JSON(http.StatusOK, api.school.Grades.SubjectsByClassAndSemester(classID, sem))
}

func (api *gradeApi) subjectCreate(ctx echo.Context) error {
	data := new(subjectRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if _, err := api.school.Registry.Class(data.ClassID); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
	}
	subj, err := api.school.Grades.AddSubject(ctx.Request().Context(), data.ClassID, data.Semester,
		grading.NewSubject{Name: data.Name, Coefficient: data.Coefficient})
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

// subjectDestroy deletes the subject along with its grades.
func (api *gradeApi) subjectDestroy(ctx echo.Context) error {
	if err := api.school.Grades.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) gradeSheet(ctx echo.Context) error {
	subj, err := api.school.Grades.Subject(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gradeSheet{
		Subject:       subj,
		DevoirNumbers: api.school.Grades.DevoirNumbers(subj.ID),
		Grades:        api.school.Grades.GradesBySubject(subj.ID),
	})
}

func (api *gradeApi) gradeSubmit(ctx echo.Context) error {
	data := new(grading.NewGrade)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if _, err := api.school.Registry.Student(data.StudentID); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
	}
	g, err := api.school.Grades.SubmitGrade(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) studentGrades(ctx echo.Context) error {
	stud, err := api.school.Registry.Student(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.school.Grades.GradesByStudent(stud.ID))
}
