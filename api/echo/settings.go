package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/settings"
	"github.com/aissist/aissist/core/user"
)

type settingsApi struct {
	svc      settings.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := settingsApi{
		svc:      deps.SettingsSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/settings", jwt)

	sg.GET("/api-keys", api.retrieve)
	sg.PATCH("/api-keys", api.updateAPIKeys)
	sg.GET("/ai-models", api.retrieve)
	sg.PATCH("/ai-models", api.updateModelPrefs)

	sg.GET("/account", api.retrieveAccount)
	sg.PATCH("/account", api.updateAccount)
	sg.DELETE("/account/delete", api.deleteAccount)
}

// Handlers

func (api *settingsApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	s, err := api.svc.Get(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) updateAPIKeys(ctx echo.Context) error {
	var data settings.UpdateAPIKeys
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAPIKeys")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	s, err := api.svc.UpdateAPIKeys(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating api keys")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) updateModelPrefs(ctx echo.Context) error {
	var data settings.UpdateModelPrefs
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModelPrefs")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	s, err := api.svc.UpdateModelPrefs(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating model preferences")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) retrieveAccount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *settingsApi) updateAccount(ctx echo.Context) error {
	var data user.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	usr, err = api.userSvc.UpdateAccount(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, usr)
}

func (api *settingsApi) deleteAccount(ctx echo.Context) error {
	var data user.DeleteAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.userSvc.DeleteAccount(ctx.Request().Context(), usr, data.Password); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}
