package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/bot"
	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/irisfast"
	"github.com/park285/goldenbells-bot/internal/metrics"
)

// handler is the part of *bot.Bot the relay drives.
type handler interface {
	Handle(ctx context.Context, in bot.Inbound) (*command.Reply, error)
}

// relay moves Iris messages into the bot and replies back out through egress.
type relay struct {
	ctx     context.Context
	bot     handler
	egress  irisfast.Egress
	metrics *metrics.Metrics
	allowed map[string]struct{}
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func newRelay(ctx context.Context, b handler, egress irisfast.Egress, m *metrics.Metrics, rooms []string, logger *zap.Logger) *relay {
	r := &relay{ctx: ctx, bot: b, egress: egress, metrics: m, logger: logger}
	if len(rooms) > 0 {
		r.allowed = make(map[string]struct{}, len(rooms))
		for _, room := range rooms {
			r.allowed[room] = struct{}{}
		}
	}
	return r
}

func (r *relay) roomAllowed(room string) bool {
	if r.allowed == nil {
		return true
	}
	_, ok := r.allowed[room]
	return ok
}

// OnMessage never blocks the websocket read loop.
func (r *relay) OnMessage(msg *irisfast.Message) {
	if msg == nil || msg.Msg == "" {
		return
	}
	if !r.roomAllowed(msg.Room) {
		r.logger.Debug("room_ignored", zap.String("room", msg.Room))
		return
	}
	in := bot.Inbound{
		MsgID:      uuid.NewString(),
		ChatID:     msg.Room,
		SenderID:   msg.SenderID(),
		SenderName: msg.SenderName(),
		Text:       msg.Msg,
	}
	r.logger.Debug("message_in", zap.String("msg_id", in.MsgID), zap.String("room", in.ChatID), zap.String("sender", in.SenderID))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.dispatch(in)
	}()
}

func (r *relay) dispatch(in bot.Inbound) {
	// shutdown drains in-flight messages, so their saves and sends must outlive r.ctx
	ctx := context.WithoutCancel(r.ctx)
	reply, err := r.bot.Handle(ctx, in)
	if err != nil {
		r.logger.Error("handle_error", zap.String("msg_id", in.MsgID), zap.String("room", in.ChatID), zap.Error(err))
	}
	if reply == nil || reply.Text == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := r.egress.SendText(sendCtx, in.ChatID, reply.Text, reply.Mentions); err != nil {
		r.metrics.SendFailure()
		r.logger.Error("reply_send_error", zap.String("msg_id", in.MsgID), zap.String("room", in.ChatID), zap.Error(err))
	}
}

// Wait blocks until every in-flight message has been answered.
func (r *relay) Wait() { r.wg.Wait() }
