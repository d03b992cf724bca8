package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/modegate"
	"github.com/park285/goldenbells-bot/internal/obslog"
)

const recentPrayers = 10

func (b *Bot) handlePrivate(ctx context.Context, req *command.Request) (*command.Reply, error) {
	b.gate.SetMode(modegate.Private)
	obslog.L().Info("mode_changed", zap.String("mode", string(modegate.Private)), zap.String("by", req.SenderID))
	return b.textReply("private.enabled", nil), nil
}

func (b *Bot) handlePublic(ctx context.Context, req *command.Request) (*command.Reply, error) {
	b.gate.SetMode(modegate.Public)
	obslog.L().Info("mode_changed", zap.String("mode", string(modegate.Public)), zap.String("by", req.SenderID))
	return b.textReply("private.disabled", nil), nil
}

func (b *Bot) handleResetLeaderboard(ctx context.Context, req *command.Request) (*command.Reply, error) {
	err := b.content.ResetLeaderboard(ctx)
	obslog.L().Info("leaderboard_reset", zap.String("by", req.SenderID))
	return b.textReply("leaderboard.reset", nil), err
}

func (b *Bot) handlePrayers(ctx context.Context, req *command.Request) (*command.Reply, error) {
	prayers := b.content.RecentPrayers(recentPrayers)
	if len(prayers) == 0 {
		return b.textReply("prayer.empty", nil), nil
	}
	lines := []string{b.render("prayer.list_header", nil)}
	for _, p := range prayers {
		lines = append(lines, b.render("prayer.row", map[string]any{
			"When":    p.At.Format("01-02 15:04"),
			"Name":    p.Name,
			"Request": p.Request,
		}))
	}
	return command.Text(strings.Join(lines, "\n")), nil
}
