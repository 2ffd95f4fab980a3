package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core/receipt"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/school"
)

type schoolApi struct {
	school *apps.School
}

type (
	classRequest struct {
		Name string `json:"name"`
	}

	// slotsRequest replaces a whole weekly schedule.
	slotsRequest struct {
		Slots []schedule.NewSlot `json:"slots"`
	}
)

func registerSchoolAPI(g *echo.Group, sch *apps.School) {
	api := schoolApi{school: sch}

	g.GET("/stats", api.stats)

	cg := g.Group("/classes")
	cg.GET("", api.classQuery)
	cg.POST("", api.classCreate)
	cg.PUT("/:id", api.classRename)
	cg.DELETE("/:id", api.classDestroy)
	cg.GET("/:id/students", api.classStudents)
	cg.GET("/:id/schedule", api.classSchedule)
	cg.PUT("/:id/schedule", api.classScheduleReplace)

	sg := g.Group("/students")
	sg.GET("", api.studentQuery)
	sg.POST("", api.studentCreate)
	sg.GET("/:id", api.studentRetrieve)
	sg.PUT("/:id", api.studentUpdate)
	sg.DELETE("/:id", api.studentDestroy)
	sg.GET("/:id/receipt", api.studentReceipt)
	sg.POST("/:id/receipt/email", api.studentReceiptEmail)
}

func (api *schoolApi) stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.school.Stats())
}

// Classes

func (api *schoolApi) classQuery(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.school.Registry.Classes())
}

func (api *schoolApi) classCreate(ctx echo.Context) error {
	data := new(classRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	class, err := api.school.Registry.AddClass(ctx.Request().Context(), data.Name)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *schoolApi) classRename(ctx echo.Context) error {
	data := new(classRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	class, err := api.school.Registry.RenameClass(ctx.Request().Context(), ctx.Param("id"), data.Name)
	if err != nil {
		return errors.Wrap(err, "renaming class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *schoolApi) classDestroy(ctx echo.Context) error {
	if err := api.school.Registry.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) classStudents(ctx echo.Context) error {
	class, err := api.school.Registry.Class(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.school.Registry.StudentsByClass(class.ID))
}

func (api *schoolApi) classSchedule(ctx echo.Context) error {
	class, err := api.school.Registry.Class(ctx.Param("id"))
	if err != nil {
		return err
	}
	slots := api.school.ClassSchedules.ListByOwner(class.ID)
	schedule.SortByStart(slots)
	return ctx.JSON(http.StatusOK, slots)
}

func (api *schoolApi) classScheduleReplace(ctx echo.Context) error {
	class, err := api.school.Registry.Class(ctx.Param("id"))
	if err != nil {
		return err
	}
	data := new(slotsRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	slots, err := api.school.ClassSchedules.ReplaceSlotsForOwner(ctx.Request().Context(), class.ID, data.Slots)
	if err != nil {
		return errors.Wrap(err, "replacing class schedule")
	}
	return ctx.JSON(http.StatusOK, slots)
}

// Students

func (api *schoolApi) studentQuery(ctx echo.Context) error {
	if classID := ctx.QueryParam("class_id"); classID != "" {
		return ctx.JSON(http.StatusOK, api.school.Registry.StudentsByClass(classID))
	}
	return ctx.JSON(http.StatusOK, api.school.Registry.Students())
}

// studentCreate registers a student, emailing its receipt when the office email is set.
func (api *schoolApi) studentCreate(ctx echo.Context) error {
	data := new(school.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	stud, err := api.school.RegisterStudent(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, stud)
}

func (api *schoolApi) studentRetrieve(ctx echo.Context) error {
	stud, err := api.school.Registry.Student(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *schoolApi) studentUpdate(ctx echo.Context) error {
	data := new(school.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	stud, err := api.school.Registry.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *schoolApi) studentDestroy(ctx echo.Context) error {
	if err := api.school.Registry.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// studentReceipt renders the registration receipt, as pdf (default) or html.
func (api *schoolApi) studentReceipt(ctx echo.Context) error {
	data, err := api.school.Receipt(ctx.Param("id"))
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	switch format := ctx.QueryParam("format"); format {
	case "html":
		if err := receipt.RenderHTML(buf, data); err != nil {
			return err
		}
		return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
	case "", "pdf":
		if err := receipt.RenderPDF(buf, data); err != nil {
			return err
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+data.Filename()+`.pdf"`)
		return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown receipt format "+format)
	}
}

func (api *schoolApi) studentReceiptEmail(ctx echo.Context) error {
	if err := api.school.EmailReceipt(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "emailing receipt")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": "receipt sent to " + api.school.Settings.Get().OfficeEmail})
}
