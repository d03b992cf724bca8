package irisfast

import "strings"

// Message is one inbound chat message pushed by Iris over the websocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// SenderID prefers the stable user id and falls back to the display name.
func (m *Message) SenderID() string {
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	return m.SenderName()
}

func (m *Message) SenderName() string {
	if m.Sender != nil {
		return strings.TrimSpace(*m.Sender)
	}
	return ""
}

type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"polling_speed"`
	MessageRate       int    `json:"message_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// ReplyRequest is the /reply body and the websocket egress frame.
type ReplyRequest struct {
	Type     string   `json:"type"`
	Room     string   `json:"room"`
	Data     string   `json:"data"`
	Mentions []string `json:"mentions,omitempty"`
}

type Member struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

type membersResponse struct {
	Members []Member `json:"members"`
}

type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)
