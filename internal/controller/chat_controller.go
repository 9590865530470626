package controller

import (
	"errors"
	"strings"

	"travel-chat-be/internal/dto"
	"travel-chat-be/internal/pkg/serverutils"
	"travel-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	GetUserSessions(ctx *fiber.Ctx) error
	UpdateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	GetWindow(ctx *fiber.Ctx) error
	GetMessageCount(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	DeleteMessage(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.GetUserSessions)
	h.Get("/session/:id", c.GetSession)
	h.Patch("/session/:id", c.UpdateSession)
	h.Delete("/session/:id", c.DeleteSession)
	h.Get("/session/:id/messages", c.GetMessages)
	h.Get("/session/:id/window", c.GetWindow)
	h.Get("/session/:id/messages/count", c.GetMessageCount)
	h.Post("/session/:id/message", c.AddMessage)
	h.Delete("/message/:id", c.DeleteMessage)
	h.Post("/send", c.Chat)
	h.Post("/send/:session_id", c.Chat)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session details", res))
}

func (c *chatController) GetUserSessions(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.service.GetUserSessions(ctx.Context(), userId)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User sessions", res))
}

func (c *chatController) UpdateSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	var req dto.UpdateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id

	res, err := c.service.UpdateSession(ctx.Context(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session updated", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, id); err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.GetChatHistory(ctx.Context(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session messages", res))
}

func (c *chatController) GetWindow(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.GetWindow(ctx.Context(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Context window", res))
}

func (c *chatController) GetMessageCount(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.GetMessageCount(ctx.Context(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Message count", res))
}

type addMessageRequest struct {
	Role string `json:"role" validate:"required"`
	Chat string `json:"chat" validate:"required"`
}

func (c *chatController) AddMessage(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	var req addMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AppendMessage(ctx.Context(), userId, id, req.Role, req.Chat)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Message saved", res))
}

func (c *chatController) DeleteMessage(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid message id")
	}

	if err := c.service.DeleteMessage(ctx.Context(), userId, id); err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Message deleted", nil))
}

// Chat accepts the session id either in the path or the body; empty or
// unresolvable ids start a fresh session.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if sessionId := ctx.Params("session_id"); sessionId != "" {
		req.SessionId = sessionId
	}

	// Whitespace-only messages are rejected here, before the turn
	// pipeline runs.
	req.Message = strings.TrimSpace(req.Message)
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No message provided")
	}

	res, err := c.service.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Reply generated", res))
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrMessageNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Message not found")
	case errors.Is(err, service.ErrSessionFull):
		return fiber.NewError(fiber.StatusConflict, "Session is full")
	default:
		return err
	}
}
