package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/room"
)

type roomApi struct {
	svc      room.ServiceInterface
	validate *validator.Validate
}

func registerRoomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := roomApi{
		svc:      deps.RoomSvc,
		validate: deps.Validate,
	}

	rg := g.Group("/rooms", jwt)

	rg.POST("", api.create)
	rg.GET("", api.query)
	rg.GET("/check-invite", api.checkInvite)

	dg := rg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/join", api.join)
	dg.POST("/update-invite-code", api.rotateInviteCode)
}

// Handlers

func (api *roomApi) create(ctx echo.Context) error {
	var data room.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rm, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating room")
	}
	return ctx.JSON(http.StatusCreated, rm)
}

func (api *roomApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mine, joined, err := api.svc.Query(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying rooms")
	}
	if mine == nil {
		mine = []room.Summary{}
	}
	if joined == nil {
		joined = []room.Summary{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"mine": mine, "joined": joined})
}

func (api *roomApi) checkInvite(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	preview, err := api.svc.CheckInviteCode(ctx.Request().Context(), ctx.QueryParam("code"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "checking invite code")
	}
	return ctx.JSON(http.StatusOK, preview)
}

func (api *roomApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	detail, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting room")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *roomApi) update(ctx echo.Context) error {
	var data room.UpdateRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRoom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rm, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating room")
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roomApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roomApi) join(ctx echo.Context) error {
	var data JoinRoomRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRoomRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	member, err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Password)
	if err != nil {
		return errors.Wrap(err, "joining room")
	}
	return ctx.JSON(http.StatusCreated, member)
}

func (api *roomApi) rotateInviteCode(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	code, err := api.svc.RotateInviteCode(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "rotating invite code")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"invite_code": code})
}
