package bot

import (
	"context"
	"fmt"

	"github.com/park285/goldenbells-bot/internal/answer"
	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/session"
)

func (b *Bot) handleQuiz(ctx context.Context, req *command.Request) (*command.Reply, error) {
	b.setSession(req.ChatID, session.PendingDifficulty{})
	return b.textReply("quiz.prompt", nil), nil
}

func (b *Bot) handleBestOfTen(ctx context.Context, req *command.Request) (*command.Reply, error) {
	d, ok := content.ParseDifficulty(req.Args)
	if !ok {
		return b.textReply("bestof10.usage", nil), nil
	}
	bank := b.content.Questions(d)
	if len(bank) < session.BestOfTenLength {
		return b.textReply("bestof10.not_enough", map[string]any{
			"Difficulty": difficultyLabel(d),
			"Total":      session.BestOfTenLength,
			"Count":      len(bank),
		}), nil
	}
	qs := sample(bank, session.BestOfTenLength, b.intN)
	b.setSession(req.ChatID, &session.BestOfTen{Difficulty: d, Questions: qs})
	return b.textReply("bestof10.start", map[string]any{
		"Total":      len(qs),
		"Difficulty": difficultyLabel(d),
		"Question":   qs[0].Question,
	}), nil
}

// sample draws k distinct questions uniformly with a partial Fisher-Yates shuffle.
// bank is reordered in place; callers pass a copy.
func sample(bank []content.Question, k int, intN func(int) int) []content.Question {
	if k > len(bank) {
		k = len(bank)
	}
	for i := 0; i < k; i++ {
		j := i + intN(len(bank)-i)
		bank[i], bank[j] = bank[j], bank[i]
	}
	out := make([]content.Question, k)
	copy(out, bank[:k])
	return out
}

// sessionInput feeds a non-command message to the chat's session.
func (b *Bot) sessionInput(ctx context.Context, in Inbound, sess session.Session) (*command.Reply, error) {
	switch s := sess.(type) {
	case session.PendingDifficulty:
		return b.pickDifficulty(in)
	case *session.ActiveQuiz:
		return b.answerQuiz(ctx, in, s)
	case *session.BestOfTen:
		return b.answerBestOfTen(ctx, in, s)
	case *session.Battle:
		return b.answerBattle(in, s)
	default:
		return nil, fmt.Errorf("unexpected session %T", sess)
	}
}

func (b *Bot) pickDifficulty(in Inbound) (*command.Reply, error) {
	d, ok := content.ParseDifficulty(in.Text)
	if !ok {
		return b.textReply("quiz.invalid_difficulty", nil), nil
	}
	bank := b.content.Questions(d)
	if len(bank) == 0 {
		return b.textReply("quiz.empty_bank", map[string]any{"Difficulty": difficultyLabel(d)}), nil
	}
	q := bank[b.intN(len(bank))]
	b.setSession(in.ChatID, &session.ActiveQuiz{Difficulty: d, Question: q})
	return b.textReply("quiz.question", map[string]any{
		"Difficulty": difficultyLabel(d),
		"Question":   q.Question,
	}), nil
}

func (b *Bot) answerQuiz(ctx context.Context, in Inbound, s *session.ActiveQuiz) (*command.Reply, error) {
	if !answer.Equal(s.Question.Answer, in.Text) {
		return b.textReply("quiz.incorrect", nil), nil
	}
	b.setSession(in.ChatID, nil)
	reply := b.textReply("quiz.correct", map[string]any{"Name": in.SenderName})
	_, err := b.content.AddScore(ctx, in.SenderName, 1)
	return reply, err
}

func (b *Bot) answerBestOfTen(ctx context.Context, in Inbound, s *session.BestOfTen) (*command.Reply, error) {
	if answer.Equal(s.Current().Answer, in.Text) {
		s.Score++
	}
	s.Index++
	if !s.Done() {
		b.sessions.Touch(in.ChatID)
		return b.textReply("bestof10.next", map[string]any{
			"Number":   s.Index + 1,
			"Total":    len(s.Questions),
			"Question": s.Current().Question,
		}), nil
	}
	b.setSession(in.ChatID, nil)
	reply := b.textReply("bestof10.done", map[string]any{
		"Total": len(s.Questions),
		"Name":  in.SenderName,
		"Score": s.Score,
	})
	if s.Score == 0 {
		return reply, nil
	}
	_, err := b.content.AddScore(ctx, in.SenderName, s.Score)
	return reply, err
}
