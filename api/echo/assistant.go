package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/assistant"
)

type assistantApi struct {
	svc      assistant.ServiceInterface
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assistantApi{
		svc:      deps.AssistantSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/ai", jwt)
	ag.POST("/analyze", api.analyze)
	ag.POST("/generate", api.generate)
}

// Handlers

func (api *assistantApi) analyze(ctx echo.Context) error {
	var data assistant.AnalyzeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnalyzeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	fields, err := api.svc.Analyze(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "analyzing note")
	}
	return ctx.JSON(http.StatusOK, fields)
}

func (api *assistantApi) generate(ctx echo.Context) error {
	var data assistant.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	text, err := api.svc.Generate(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "generating note")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"text": text})
}
