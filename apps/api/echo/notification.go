package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/notification"
)

type notificationApi struct {
	board *notification.Board
}

func registerNotificationAPI(g *echo.Group, board *notification.Board) {
	api := notificationApi{board: board}

	ng := g.Group("/notifications")
	ng.GET("", api.query)
	ng.DELETE("/:id", api.dismiss)
}

func (api *notificationApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	items, err := api.board.List(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *notificationApi) dismiss(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	if _, err = api.board.Dismiss(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "dismissing notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
