package bot

import (
	"context"

	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/util"
)

func (b *Bot) registerCommands() {
	b.table.MustRegister(
		command.Spec{Name: "menu", Aliases: []string{"help"}, Handler: b.handleMenu},
		command.Spec{Name: "quiz", Handler: b.handleQuiz},
		command.Spec{Name: "bestof10", Arity: command.ArgsRequired, Usage: "bestof10.usage", Handler: b.handleBestOfTen},
		command.Spec{Name: "lyrics", Arity: command.ArgsRequired, Usage: "lyrics.usage", Handler: b.handleLyrics},
		command.Spec{Name: "leaderboard", Handler: b.handleLeaderboard},
		command.Spec{Name: "addteaching", Arity: command.ArgsRequired, Usage: "teaching.add_usage", Handler: b.handleAddTeaching},
		command.Spec{Name: "teachings", Handler: b.handleTeachings},
		command.Spec{Name: "teaching", Arity: command.ArgsRequired, Usage: "teaching.usage", Handler: b.handleTeaching},
		command.Spec{Name: "jointeam", Arity: command.ArgsRequired, Usage: "team.usage", Handler: b.handleJoinTeam},
		command.Spec{Name: "teamleaderboard", Handler: b.handleTeamLeaderboard},
		command.Spec{Name: "tagall", Handler: b.handleTagAll},
		command.Spec{Name: "battle", Arity: command.ArgsRequired, Usage: "battle.usage", Handler: b.handleBattle},
		command.Spec{Name: "endbattle", Handler: b.handleEndBattle},
		command.Spec{Name: "prayer", Arity: command.ArgsRequired, Usage: "prayer.usage", Handler: b.handlePrayer},

		command.Spec{Name: "private", AdminOnly: true, BypassPrivate: true, Handler: b.handlePrivate},
		command.Spec{Name: "public", AdminOnly: true, BypassPrivate: true, Handler: b.handlePublic},
		command.Spec{Name: "resetleaderboard", AdminOnly: true, Handler: b.handleResetLeaderboard},
		command.Spec{Name: "prayers", AdminOnly: true, Handler: b.handlePrayers},
	)
}

func (b *Bot) handleMenu(ctx context.Context, req *command.Request) (*command.Reply, error) {
	return command.Text(util.FoldLong(b.render("menu", nil))), nil
}
