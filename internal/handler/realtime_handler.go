package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/ws"
	"go-inventory-checklist/pkg/realtime"
)

// RealtimeHandler serves the table change feed at /realtime/v1.
type RealtimeHandler struct {
	hub *ws.Hub
	log zerolog.Logger
}

func NewRealtimeHandler(hub *ws.Hub, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, log: log.With().Str("handler", "realtime").Logger()}
}

// Upgrade rejects plain HTTP requests to the feed.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

func (h *RealtimeHandler) Feed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, _ := conn.Locals(middleware.LocalUser).(*model.User)
		if user == nil {
			conn.WriteJSON(realtime.Message{Type: realtime.TypeError, Error: "not authenticated"})
			conn.Close()
			return
		}

		var companyID *uuid.UUID
		if !user.Role.IsPlatform() {
			companyID = user.CompanyID
		}
		client := ws.NewClient(conn, companyID)
		h.hub.Join(client)
		defer h.hub.Leave(client)

		for {
			var msg realtime.Message
			if err := conn.ReadJSON(&msg); err != nil {
				h.log.Debug().Err(err).Str("user_id", user.ID.String()).Msg("feed closed")
				return
			}
			if err := h.handle(client, msg); err != nil {
				return
			}
		}
	})
}

func (h *RealtimeHandler) handle(client *ws.Client, msg realtime.Message) error {
	switch msg.Type {
	case realtime.TypeSubscribe:
		if !ws.Tables[msg.Table] {
			return client.Send(realtime.Message{Type: realtime.TypeError, Ref: msg.Ref, Error: "unknown table " + msg.Table})
		}
		filter, err := realtime.ParseFilter(msg.Filter)
		if err != nil {
			return client.Send(realtime.Message{Type: realtime.TypeError, Ref: msg.Ref, Error: err.Error()})
		}
		client.Subscribe(msg.Ref, msg.Table, filter)
		return client.Send(realtime.Message{Type: realtime.TypeAck, Ref: msg.Ref, Table: msg.Table})

	case realtime.TypeUnsubscribe:
		client.Unsubscribe(msg.Ref)
		return nil
	}
	return client.Send(realtime.Message{Type: realtime.TypeError, Ref: msg.Ref, Error: "unsupported message type"})
}
