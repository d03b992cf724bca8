// Package bot is the message engine: mode gate, then the chat's session, then the
// command table. Handlers are grouped by feature (quiz.go, library.go, battle.go, admin.go).
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/metrics"
	"github.com/park285/goldenbells-bot/internal/modegate"
	"github.com/park285/goldenbells-bot/internal/msgcat"
	"github.com/park285/goldenbells-bot/internal/obslog"
	"github.com/park285/goldenbells-bot/internal/session"
)

// Participant is a chat member as reported by the messaging transport.
type Participant struct {
	ID   string
	Name string
}

// Directory resolves the members of a chat.
type Directory interface {
	Participants(ctx context.Context, chatID string) ([]Participant, error)
}

// Inbound is one message as received from the transport.
type Inbound struct {
	MsgID      string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
}

type Config struct {
	Prefix           string
	BattleTarget     int
	BattleMaxRounds  int
	BattleDifficulty content.Difficulty
}

type Deps struct {
	Config    Config
	Content   *content.Store
	Sessions  *session.Registry
	Gate      *modegate.Gate
	Catalog   *msgcat.Catalog
	Directory Directory
	Metrics   *metrics.Metrics
	// IntN picks a random index in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

type Bot struct {
	cfg      Config
	content  *content.Store
	sessions *session.Registry
	gate     *modegate.Gate
	catalog  *msgcat.Catalog
	dir      Directory
	metrics  *metrics.Metrics
	intN     func(n int) int
	table    *command.Table
}

var errNoDirectory = errors.New("participant directory not configured")

func New(d Deps) (*Bot, error) {
	if d.Content == nil || d.Catalog == nil {
		return nil, errors.New("bot: content and catalog are required")
	}
	if strings.TrimSpace(d.Config.Prefix) == "" {
		return nil, errors.New("bot: empty command prefix")
	}
	if d.Sessions == nil {
		d.Sessions = session.NewRegistry()
	}
	if d.Gate == nil {
		d.Gate = modegate.NewGate(nil, false)
	}
	if d.IntN == nil {
		d.IntN = rand.Intn
	}
	if _, ok := content.ParseDifficulty(string(d.Config.BattleDifficulty)); !ok {
		d.Config.BattleDifficulty = content.Medium
	}
	b := &Bot{
		cfg:      d.Config,
		content:  d.Content,
		sessions: d.Sessions,
		gate:     d.Gate,
		catalog:  d.Catalog,
		dir:      d.Directory,
		metrics:  d.Metrics,
		intN:     d.IntN,
		table:    command.NewTable(d.Config.Prefix),
	}
	b.registerCommands()
	return b, nil
}

// Commands exposes the command table, mostly for diagnostics.
func (b *Bot) Commands() *command.Table { return b.table }

// Handle processes one inbound message and returns the reply to send, or nil when the
// bot stays silent. Messages of the same chat are processed one at a time.
func (b *Bot) Handle(ctx context.Context, in Inbound) (reply *command.Reply, err error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || in.ChatID == "" {
		return nil, nil
	}
	if strings.TrimSpace(in.SenderName) == "" {
		in.SenderName = modegate.NormalizeIdentity(in.SenderID)
	}

	unlock := b.sessions.Lock(in.ChatID)
	defer unlock()

	logger := obslog.L().With(
		zap.String("msg_id", in.MsgID),
		zap.String("room", in.ChatID),
		zap.String("sender", in.SenderName),
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler_panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			reply = b.textReply("error.internal", nil)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	spec, args, isCmd := b.table.Resolve(text)
	sess := b.sessions.Get(in.ChatID)
	if !isCmd && !b.consumes(sess, in) {
		return nil, nil
	}

	isAdmin := b.gate.IsAdmin(in.SenderID)
	if isCmd && spec.AdminOnly && !isAdmin {
		logger.Debug("admin_command_ignored", zap.String("command", spec.Name))
		if b.gate.Allowed(in.SenderID) {
			b.cancelPending(logger, in.ChatID, sess, spec.Name)
		}
		return nil, nil
	}
	if !b.gate.Allowed(in.SenderID) && !(isCmd && spec.BypassPrivate) {
		return b.textReply("private.notice", nil), nil
	}

	if !isCmd {
		reply, err = b.sessionInput(ctx, in, sess)
		return b.finish(logger, "session_input", reply, err)
	}

	b.cancelPending(logger, in.ChatID, sess, spec.Name)

	req := &command.Request{
		ChatID:     in.ChatID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Name:       spec.Name,
		Args:       args,
		Raw:        text,
		IsAdmin:    isAdmin,
	}
	logger.Info("command_dispatch", zap.String("command", spec.Name))
	b.metrics.Command(spec.Name)
	if err := spec.CheckArgs(args); err != nil {
		return b.textReply(spec.Usage, nil), nil
	}
	reply, err = spec.Handler(ctx, req)
	return b.finish(logger, spec.Name, reply, err)
}

// cancelPending drops a difficulty prompt when any command other than quiz arrives.
func (b *Bot) cancelPending(logger *zap.Logger, chatID string, sess session.Session, name string) {
	if _, pending := sess.(session.PendingDifficulty); !pending || name == "quiz" {
		return
	}
	b.sessions.Clear(chatID)
	logger.Info("session_transition", zap.String("from", string(session.KindPendingDifficulty)), zap.String("to", string(session.KindNone)))
}

// consumes reports whether a non-command message is input for the chat's session.
func (b *Bot) consumes(sess session.Session, in Inbound) bool {
	switch s := sess.(type) {
	case nil:
		return false
	case *session.Battle:
		return s.TurnPlayer() != "" && strings.EqualFold(strings.TrimSpace(in.SenderName), s.TurnPlayer())
	default:
		return true
	}
}

// finish turns handler errors into replies. A persistence failure keeps the handler's
// reply and appends a warning; anything else becomes the generic error reply.
func (b *Bot) finish(logger *zap.Logger, what string, reply *command.Reply, err error) (*command.Reply, error) {
	if err == nil {
		return reply, nil
	}
	if errors.Is(err, content.ErrPersist) {
		logger.Error("persist_error", zap.String("command", what), zap.Error(err))
		b.metrics.PersistFailure()
		warn := b.render("error.persist", nil)
		if reply == nil {
			return command.Text(warn), nil
		}
		reply.Text = strings.TrimSpace(reply.Text + "\n\n" + warn)
		return reply, nil
	}
	logger.Error("handler_error", zap.String("command", what), zap.Error(err))
	return b.textReply("error.internal", nil), err
}

func (b *Bot) setSession(chatID string, s session.Session) {
	from := session.KindOf(b.sessions.Get(chatID))
	b.sessions.Set(chatID, s)
	to := session.KindOf(s)
	obslog.L().Info("session_transition",
		zap.String("room", chatID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if s != nil {
		b.metrics.SessionStarted(string(to))
	}
}

// render fills a catalog template. P is always the command prefix.
func (b *Bot) render(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	data["P"] = b.cfg.Prefix
	out, err := b.catalog.Render(key, data)
	if err != nil {
		obslog.L().Error("render_error", zap.String("key", key), zap.Error(err))
		return ""
	}
	return out
}

func (b *Bot) textReply(key string, data map[string]any) *command.Reply {
	return command.Text(b.render(key, data))
}

func difficultyLabel(d content.Difficulty) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
