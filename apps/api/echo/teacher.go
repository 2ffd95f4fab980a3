package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/teacher"
)

type teacherApi struct {
	school *apps.School
}

func registerTeacherAPI(g *echo.Group, sch *apps.School) {
	api := teacherApi{school: sch}

	tg := g.Group("/teachers")
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
	tg.GET("/:id/schedule", api.schedule)
	tg.PUT("/:id/schedule", api.scheduleReplace)
}

func (api *teacherApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.school.Teachers.List())
}

func (api *teacherApi) create(ctx echo.Context) error {
	data := new(teacher.NewTeacher)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	tchr, err := api.school.Teachers.Add(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

// retrieve returns the teacher along with their schedule.
func (api *teacherApi) retrieve(ctx echo.Context) error {
	ws, err := api.school.Teachers.WithSchedule(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ws)
}

func (api *teacherApi) update(ctx echo.Context) error {
	data := new(teacher.UpdateTeacher)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	tchr, err := api.school.Teachers.Update(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

// destroy deletes the teacher and their schedule.
func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.school.Teachers.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) schedule(ctx echo.Context) error {
	tchr, err := api.school.Teachers.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	slots := api.school.TeacherSchedules.ListByOwner(tchr.ID)
	schedule.SortByStart(slots)
	return ctx.JSON(http.StatusOK, slots)
}

func (api *teacherApi) scheduleReplace(ctx echo.Context) error {
	tchr, err := api.school.Teachers.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	data := new(slotsRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	slots, err := api.school.TeacherSchedules.ReplaceSlotsForOwner(ctx.Request().Context(), tchr.ID, data.Slots)
	if err != nil {
		return errors.Wrap(err, "replacing teacher schedule")
	}
	return ctx.JSON(http.StatusOK, slots)
}
