package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Envelope is the wire format for every push frame: a type tag the client
// switches on plus the emission payload.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ErrorFrame is the last data frame written before an abnormal close.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WriteEnvelope writes one typed frame.
func WriteEnvelope(conn *websocket.Conn, kind string, payload interface{}) error {
	return conn.WriteJSON(Envelope{Type: kind, Payload: payload})
}

// WriteError reports a terminal stream failure to the client.
func WriteError(conn *websocket.Conn, message string) error {
	return conn.WriteJSON(ErrorFrame{Type: "error", Error: message})
}

// WriteClose sends a close frame with the given code and reason. Control
// frame payloads are capped at 125 bytes, so the reason is truncated to
// leave room for the 2-byte status code.
func WriteClose(conn *websocket.Conn, code int, reason string) error {
	if len(reason) > 123 {
		reason = reason[:123]
	}
	msg := websocket.FormatCloseMessage(code, reason)
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
