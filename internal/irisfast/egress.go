package irisfast

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Egress delivers text replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, text string, mentions []string) error
}

const (
	EgressHTTP = "http"
	EgressWS   = "ws"
	EgressAuto = "auto"
)

// NewEgress picks the reply path. auto prefers the websocket while it is connected
// and falls back to HTTP once when the websocket write fails.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) (Egress, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out Egress
	switch mode {
	case EgressHTTP, "":
		if c == nil {
			return nil, errors.New("http egress needs a client")
		}
		out = &httpEgress{c: c}
	case EgressWS:
		if ws == nil {
			return nil, errors.New("ws egress needs a websocket")
		}
		out = &wsEgress{ws: ws}
	case EgressAuto:
		if c == nil || ws == nil {
			return nil, errors.New("auto egress needs both client and websocket")
		}
		out = &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		return nil, fmt.Errorf("unknown egress mode %q", mode)
	}
	if dryrun {
		return &dryRunEgress{logger: logger}, nil
	}
	return out, nil
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, text string, mentions []string) error {
	return h.c.SendText(ctx, room, text, mentions)
}

type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) SendText(ctx context.Context, room, text string, mentions []string) error {
	return w.ws.WriteJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: text, Mentions: mentions})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, text string, mentions []string) error {
	if a.ws.ws.Connected() {
		err := a.ws.SendText(ctx, room, text, mentions)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, text, mentions)
}

// dryRunEgress only logs what would have been sent.
type dryRunEgress struct{ logger *zap.Logger }

func (d *dryRunEgress) SendText(ctx context.Context, room, text string, mentions []string) error {
	d.logger.Info("egress_dryrun",
		zap.String("room", room),
		zap.Int("len", len(text)),
		zap.Int("mentions", len(mentions)))
	return nil
}
