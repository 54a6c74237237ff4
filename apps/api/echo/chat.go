package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/chat"
)

type chatApi struct {
	svc      *chat.Service
	validate *validator.Validate
}

func registerChatAPI(g *echo.Group, svc *chat.Service, validate *validator.Validate) {
	api := chatApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/chat")

	cg.POST("/requests", api.submitRequest)
	cg.GET("/requests", api.listRequests)
	cg.GET("/quota", api.quota)
	cg.GET("/notices", api.listNotices)

	// detail endpoints
	dg := cg.Group("/requests/:id")
	dg.GET("", api.retrieveRequest)
	dg.POST("/approve", api.approve)
	dg.POST("/reject", api.reject)
	dg.POST("/open", api.openConversation)
	dg.POST("/end", api.endConversation)
	dg.GET("/messages", api.listMessages)
	dg.POST("/messages", api.sendMessage)
}

// Handlers

func (api *chatApi) submitRequest(ctx echo.Context) error {
	var data chat.NewChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.SubmitRequest(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *chatApi) listRequests(ctx echo.Context) error {
	participant := core.CleanString(ctx.QueryParam("participant"))
	if participant == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "participant", Error: "this field is required"})
	}

	reqs, err := api.svc.ListRequests(ctx.Request().Context(), participant)
	if err != nil {
		return errors.Wrap(err, "listing chat requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *chatApi) quota(ctx echo.Context) error {
	student := core.CleanString(ctx.QueryParam("student"))
	if student == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "student", Error: "this field is required"})
	}

	status, err := api.svc.Quota(ctx.Request().Context(), student)
	if err != nil {
		return errors.Wrap(err, "checking quota")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *chatApi) listNotices(ctx echo.Context) error {
	participant := core.CleanString(ctx.QueryParam("participant"))
	if participant == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "participant", Error: "this field is required"})
	}

	notices, err := api.svc.ListNotices(ctx.Request().Context(), participant)
	if err != nil {
		return errors.Wrap(err, "listing chat notices")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *chatApi) retrieveRequest(ctx echo.Context) error {
	req, err := api.svc.GetRequest(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *chatApi) approve(ctx echo.Context) error {
	req, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *chatApi) reject(ctx echo.Context) error {
	req, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *chatApi) openConversation(ctx echo.Context) error {
	req, err := api.svc.OpenConversation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *chatApi) endConversation(ctx echo.Context) error {
	req, err := api.svc.EndConversation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *chatApi) listMessages(ctx echo.Context) error {
	msgs, err := api.svc.ListMessages(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) sendMessage(ctx echo.Context) error {
	var data chat.NewChatMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChatMessage")
	}
	data.RequestID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.SendMessage(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}
