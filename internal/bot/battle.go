package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/goldenbells-bot/internal/battle"
	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/session"
)

// parseBattleArgs reads "@opponent [difficulty]". Opponent names may contain spaces.
func parseBattleArgs(args string, def content.Difficulty) (opponent string, d content.Difficulty, err error) {
	d = def
	fields := strings.Fields(args)
	if n := len(fields); n > 1 {
		if pd, ok := content.ParseDifficulty(fields[n-1]); ok {
			d = pd
			fields = fields[:n-1]
		}
	}
	opponent, err = battle.ParseOpponent(strings.Join(fields, " "))
	return opponent, d, err
}

func (b *Bot) handleBattle(ctx context.Context, req *command.Request) (*command.Reply, error) {
	opponent, d, err := parseBattleArgs(req.Args, b.cfg.BattleDifficulty)
	if err != nil {
		return b.textReply("battle.usage", nil), nil
	}
	bank := b.content.Questions(d)
	deck := sample(bank, len(bank), b.intN)

	bt, err := battle.New(req.ChatID, req.SenderName, opponent, deck, battle.Options{
		Target:    b.cfg.BattleTarget,
		MaxRounds: b.cfg.BattleMaxRounds,
	})
	switch {
	case errors.Is(err, battle.ErrSelfChallenge):
		return b.textReply("battle.self", nil), nil
	case errors.Is(err, battle.ErrNoQuestions):
		return b.textReply("battle.no_questions", map[string]any{"Difficulty": difficultyLabel(d)}), nil
	case err != nil:
		return b.textReply("battle.usage", nil), nil
	}
	b.setSession(req.ChatID, &session.Battle{Battle: bt})

	start := b.render("battle.start", map[string]any{
		"Player1": bt.Players[0].Name,
		"Player2": bt.Players[1].Name,
		"Target":  bt.Target,
		"Rounds":  bt.MaxRounds,
	})
	return command.Text(start + "\n\n" + b.battleTurn(bt)), nil
}

func (b *Bot) battleTurn(bt *battle.Battle) string {
	return b.render("battle.turn", map[string]any{
		"Round":    bt.Round,
		"Rounds":   bt.MaxRounds,
		"Player":   bt.TurnPlayer(),
		"Question": bt.Question(),
	})
}

func scoreData(bt *battle.Battle, extra map[string]any) map[string]any {
	data := map[string]any{
		"Player1": bt.Players[0].Name,
		"Score1":  bt.Players[0].Score,
		"Player2": bt.Players[1].Name,
		"Score2":  bt.Players[1].Score,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (b *Bot) answerBattle(in Inbound, s *session.Battle) (*command.Reply, error) {
	out, err := s.Submit(in.SenderName, in.Text)
	if errors.Is(err, battle.ErrNotYourTurn) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []string
	if out.Correct {
		lines = append(lines, b.render("battle.correct", scoreData(s.Battle, map[string]any{"Player": out.Player})))
	} else {
		lines = append(lines, b.render("battle.incorrect", scoreData(s.Battle, map[string]any{
			"Player": out.Player,
			"Answer": out.Answer,
		})))
	}

	if out.Finished {
		b.setSession(in.ChatID, nil)
		if out.Draw {
			lines = append(lines, b.render("battle.draw", scoreData(s.Battle, nil)))
		} else {
			lines = append(lines, b.render("battle.won", scoreData(s.Battle, map[string]any{"Winner": out.Winner})))
		}
		return command.Text(strings.Join(lines, "\n\n")), nil
	}
	b.sessions.Touch(in.ChatID)
	lines = append(lines, b.battleTurn(s.Battle))
	return command.Text(strings.Join(lines, "\n\n")), nil
}

// handleEndBattle stops the chat's battle when asked by a player or an admin.
func (b *Bot) handleEndBattle(ctx context.Context, req *command.Request) (*command.Reply, error) {
	s, ok := b.sessions.Get(req.ChatID).(*session.Battle)
	if !ok {
		return b.textReply("battle.none", nil), nil
	}
	if !req.IsAdmin && !s.IsPlayer(req.SenderName) {
		return nil, nil
	}
	b.setSession(req.ChatID, nil)
	return b.textReply("battle.ended", map[string]any{"Name": req.SenderName}), nil
}
