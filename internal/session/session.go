// Package session tracks the single conversational state each chat is in.
package session

import (
	"github.com/park285/goldenbells-bot/internal/battle"
	"github.com/park285/goldenbells-bot/internal/content"
)

// Session is one of PendingDifficulty, ActiveQuiz, BestOfTen or Battle. A nil
// Session means the chat has nothing in progress.
type Session interface {
	Kind() Kind
	isSession()
}

type Kind string

const (
	KindNone              Kind = "none"
	KindPendingDifficulty Kind = "pending_difficulty"
	KindActiveQuiz        Kind = "active_quiz"
	KindBestOfTen         Kind = "best_of_ten"
	KindBattle            Kind = "battle"
)

// KindOf is safe to call with a nil session.
func KindOf(s Session) Kind {
	if s == nil {
		return KindNone
	}
	return s.Kind()
}

// PendingDifficulty waits for easy, medium or hard after !quiz.
type PendingDifficulty struct{}

// ActiveQuiz waits for the answer to one question.
type ActiveQuiz struct {
	Difficulty content.Difficulty
	Question   content.Question
}

// BestOfTenLength is the number of questions in a best-of-ten run.
const BestOfTenLength = 10

type BestOfTen struct {
	Difficulty content.Difficulty
	Questions  []content.Question
	Index      int
	Score      int
}

// Current is the question awaiting an answer.
func (b *BestOfTen) Current() content.Question { return b.Questions[b.Index] }

// Done reports whether every question has been answered.
func (b *BestOfTen) Done() bool { return b.Index >= len(b.Questions) }

type Battle struct {
	*battle.Battle
}

func (PendingDifficulty) Kind() Kind { return KindPendingDifficulty }
func (*ActiveQuiz) Kind() Kind       { return KindActiveQuiz }
func (*BestOfTen) Kind() Kind        { return KindBestOfTen }
func (*Battle) Kind() Kind           { return KindBattle }

func (PendingDifficulty) isSession() {}
func (*ActiveQuiz) isSession()       {}
func (*BestOfTen) isSession()        {}
func (*Battle) isSession()           {}
