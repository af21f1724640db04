package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/httpx"
	"github.com/yeray-yas/ChatApp-sub003/internal/service"
)

type MessageHandler struct {
	chatService *service.ChatService
}

func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendDirectMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	message, err := h.chatService.SendDirectMessage(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidID):
			return httpx.BadRequest(c, "invalid_receiver", "Invalid receiver id")
		case errors.Is(err, service.ErrEmptyBody):
			return httpx.BadRequest(c, "missing_body", "Message body is required")
		}
		return httpx.Internal(c, "send_message_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	counterpartID := c.Query("counterpart_id")
	if counterpartID == "" {
		return httpx.BadRequest(c, "missing_counterpart", "counterpart_id is required")
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	messages, err := h.chatService.GetConversation(c.Context(), userID, counterpartID, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			return httpx.BadRequest(c, "invalid_counterpart", "Invalid counterpart_id")
		}
		return httpx.Internal(c, "fetch_messages_failed")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// MarkConversationRead flips everything the counterpart sent to the caller
// in this conversation to read. Responds with how many messages changed.
func (h *MessageHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	counterpartID := c.Params("counterpartId")
	n, err := h.chatService.MarkConversationRead(c.Context(), userID, counterpartID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			return httpx.BadRequest(c, "invalid_counterpart", "Invalid counterpart id")
		}
		return httpx.Internal(c, "mark_read_failed")
	}

	return c.JSON(fiber.Map{
		"updated": n,
	})
}
