package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core/settings"
)

var errResetNotConfirmed = echo.NewHTTPError(http.StatusBadRequest, "add ?confirm=yes to wipe all data")

type settingsApi struct {
	school *apps.School
}

func registerSettingsAPI(g *echo.Group, sch *apps.School) {
	api := settingsApi{school: sch}

	g.GET("/settings", api.retrieve)
	g.PATCH("/settings", api.update)
	g.POST("/reset", api.reset)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.school.Settings.Get())
}

// update only changes the settings present in the request body.
func (api *settingsApi) update(ctx echo.Context) error {
	data := new(settings.UpdateSettings)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	st, err := api.school.Settings.Update(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *settingsApi) reset(ctx echo.Context) error {
	if ctx.QueryParam("confirm") != "yes" {
		return errResetNotConfirmed
	}
	if err := api.school.Reset(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "resetting data")
	}
	return ctx.NoContent(http.StatusNoContent)
}
