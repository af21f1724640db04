package handlers

import (
	"context"
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/handlers/ws"
	"github.com/yeray-yas/ChatApp-sub003/internal/identity"
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/service"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// WebSocketHandler serves the observe streams. Each connection gets a
// service bound to its authenticated user, one subscription, and a pump
// that writes every emission as a JSON frame until either side ends it.
type WebSocketHandler struct {
	chatList *service.ChatListService
	hub      *ws.Hub
}

func NewWebSocketHandler(chatList *service.ChatListService, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		chatList: chatList,
		hub:      hub,
	}
}

// ChatList pushes the sorted conversation list, newest first, re-emitted
// on every upstream snapshot.
func (h *WebSocketHandler) ChatList(c *websocket.Conn) {
	pushStream(h, c, "chat_list", func(ctx context.Context, svc *service.ChatListService) *stream.Subscription[[]models.ChatListItem] {
		return svc.ObserveChatList(ctx)
	})
}

// UnreadIndividual pushes the total unread count over the chat list.
func (h *WebSocketHandler) UnreadIndividual(c *websocket.Conn) {
	pushStream(h, c, "unread_individual", func(ctx context.Context, svc *service.ChatListService) *stream.Subscription[int] {
		return svc.ObserveTotalUnreadIndividual(ctx)
	})
}

// UnreadGroups pushes the summed unread count across the user's groups.
func (h *WebSocketHandler) UnreadGroups(c *websocket.Conn) {
	pushStream(h, c, "unread_groups", func(ctx context.Context, svc *service.ChatListService) *stream.Subscription[int] {
		return svc.ObserveTotalUnreadGroups(ctx)
	})
}

// pushStream runs one observe connection: subscribe, forward every
// emission as a typed frame, and translate the stream's terminal state
// into the closing handshake. Cancelling the context tears the whole
// pipeline down, so a client disconnect releases all upstream listeners.
func pushStream[T any](h *WebSocketHandler, c *websocket.Conn, kind string, subscribe func(context.Context, *service.ChatListService) *stream.Subscription[T]) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		// The auth middleware runs before the upgrade, so a missing local
		// is a routing bug, not a client fault.
		_ = ws.WriteClose(c, websocket.ClosePolicyViolation, "unauthorized")
		_ = c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(userID, c)
	defer h.hub.Unregister(c)

	// Clients never send data frames on observe connections; the read loop
	// exists to answer pings and to notice the disconnect.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	svc := h.chatList.WithIdentity(identity.Static(userID))
	sub := subscribe(ctx, svc)
	defer sub.Cancel()

	for value := range sub.C() {
		if err := ws.WriteEnvelope(c, kind, value); err != nil {
			log.Printf("Write failed on %s for user %s: %v", kind, userID, err)
			return
		}
	}

	if err := sub.Err(); err != nil {
		log.Printf("Stream %s for user %s terminated: %v", kind, userID, err)
		_ = ws.WriteError(c, err.Error())
		_ = ws.WriteClose(c, websocket.CloseInternalServerErr, err.Error())
		return
	}
	_ = ws.WriteClose(c, websocket.CloseNormalClosure, "")
}
