package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/service"
)

type GroupHandler struct {
	chatService *service.ChatService
}

func NewGroupHandler(chatService *service.ChatService) *GroupHandler {
	return &GroupHandler{chatService: chatService}
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group name is required"})
	}

	userID := c.Locals("userID").(string)
	group, err := h.chatService.CreateGroup(c.Context(), req.Name, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *GroupHandler) GetMyGroups(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupIDs, err := h.chatService.UserGroups(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch groups"})
	}

	return c.JSON(fiber.Map{"group_ids": groupIDs})
}

func (h *GroupHandler) JoinGroup(c *fiber.Ctx) error {
	groupID := c.Params("id")
	userID := c.Locals("userID").(string)

	if err := h.chatService.JoinGroup(c.Context(), groupID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrGroupNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		case errors.Is(err, service.ErrAlreadyMember):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already a member"})
		case errors.Is(err, service.ErrInvalidID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join group"})
	}

	return c.JSON(fiber.Map{"message": "Joined group successfully"})
}

func (h *GroupHandler) LeaveGroup(c *fiber.Ctx) error {
	groupID := c.Params("id")
	userID := c.Locals("userID").(string)

	if err := h.chatService.LeaveGroup(c.Context(), groupID, userID); err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to leave group"})
	}

	return c.JSON(fiber.Map{"message": "Left group successfully"})
}

func (h *GroupHandler) GetGroupMembers(c *fiber.Ctx) error {
	groupID := c.Params("id")
	members, err := h.chatService.GroupMembers(c.Context(), groupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch members"})
	}

	return c.JSON(fiber.Map{"members": members})
}

func (h *GroupHandler) SendGroupMessage(c *fiber.Ctx) error {
	groupID := c.Params("id")
	userID := c.Locals("userID").(string)

	var input service.SendGroupMessageInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.chatService.SendGroupMessage(c.Context(), userID, groupID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotGroupMember):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		case errors.Is(err, service.ErrInvalidID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
		case errors.Is(err, service.ErrEmptyBody):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message body is required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkGroupRead advances the caller's read watermark and zeroes their
// live unread counter for this group.
func (h *GroupHandler) MarkGroupRead(c *fiber.Ctx) error {
	groupID := c.Params("id")
	userID := c.Locals("userID").(string)

	if err := h.chatService.MarkGroupRead(c.Context(), userID, groupID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotGroupMember):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		case errors.Is(err, service.ErrInvalidID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark group read"})
	}

	return c.JSON(fiber.Map{"message": "Group marked read"})
}

// GetGroupUnread recounts the caller's unread total for this group from
// persistence. The live counter streams the same quantity; this endpoint
// is the authoritative recount.
func (h *GroupHandler) GetGroupUnread(c *fiber.Ctx) error {
	groupID := c.Params("id")
	userID := c.Locals("userID").(string)

	unread, err := h.chatService.GroupUnread(c.Context(), userID, groupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count unread"})
	}

	return c.JSON(fiber.Map{"group_id": groupID, "unread": unread})
}
