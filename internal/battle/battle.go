// Package battle runs a head-to-head quiz between two players in one chat.
// Players alternate turns; only the player whose turn it is may answer.
package battle

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/park285/goldenbells-bot/internal/answer"
	"github.com/park285/goldenbells-bot/internal/content"
)

var (
	ErrInvalidArgs   = errors.New("invalid arguments")
	ErrNoOpponent    = errors.New("opponent must be given as @name")
	ErrSelfChallenge = errors.New("cannot challenge yourself")
	ErrNoQuestions   = errors.New("no questions for battle")
	ErrNotYourTurn   = errors.New("not this player's turn")
	ErrFinished      = errors.New("battle already finished")
)

const (
	DefaultTarget    = 3
	DefaultMaxRounds = 5
)

type Player struct {
	Name  string
	Score int
}

type Options struct {
	// Target is the number of correct answers that wins outright.
	Target int
	// MaxRounds caps the battle; one round is one turn per player.
	MaxRounds int
}

func (o Options) withDefaults() Options {
	if o.Target <= 0 {
		o.Target = DefaultTarget
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	return o
}

type Battle struct {
	ID        string
	ChatID    string
	Players   [2]Player
	Turn      int // index into Players
	Round     int // 1-based
	Target    int
	MaxRounds int
	StartedAt time.Time

	deck    []content.Question
	next    int
	current content.Question
	done    bool
}

// Outcome describes one scored answer.
type Outcome struct {
	Player   string
	Correct  bool
	Answer   string
	Finished bool
	Winner   string // empty on a draw or while running
	Draw     bool
}

// ParseOpponent extracts the name from an "@name" reference.
func ParseOpponent(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "@") {
		return "", ErrNoOpponent
	}
	name := strings.TrimSpace(strings.TrimPrefix(arg, "@"))
	if name == "" {
		return "", ErrNoOpponent
	}
	return name, nil
}

// New opens a battle. deck is the question order; it is reused from the start when
// the battle outlasts it.
func New(chatID, challenger, opponent string, deck []content.Question, opts Options) (*Battle, error) {
	challenger = strings.TrimSpace(challenger)
	opponent = strings.TrimSpace(opponent)
	if chatID == "" || challenger == "" || opponent == "" {
		return nil, ErrInvalidArgs
	}
	if samePlayer(challenger, opponent) {
		return nil, ErrSelfChallenge
	}
	if len(deck) == 0 {
		return nil, ErrNoQuestions
	}
	opts = opts.withDefaults()
	b := &Battle{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Players:   [2]Player{{Name: challenger}, {Name: opponent}},
		Round:     1,
		Target:    opts.Target,
		MaxRounds: opts.MaxRounds,
		StartedAt: time.Now(),
		deck:      append([]content.Question(nil), deck...),
	}
	b.draw()
	return b, nil
}

func samePlayer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (b *Battle) draw() {
	b.current = b.deck[b.next%len(b.deck)]
	b.next++
}

// TurnPlayer is the player expected to answer the current question.
func (b *Battle) TurnPlayer() string { return b.Players[b.Turn].Name }

func (b *Battle) Question() string { return b.current.Question }

func (b *Battle) Finished() bool { return b.done }

// IsPlayer reports whether name takes part in the battle.
func (b *Battle) IsPlayer(name string) bool {
	return samePlayer(name, b.Players[0].Name) || samePlayer(name, b.Players[1].Name)
}

// Submit scores text as the turn player's answer and advances the turn.
func (b *Battle) Submit(player, text string) (Outcome, error) {
	if b.done {
		return Outcome{}, ErrFinished
	}
	if !samePlayer(player, b.TurnPlayer()) {
		return Outcome{}, ErrNotYourTurn
	}
	out := Outcome{
		Player:  b.TurnPlayer(),
		Correct: answer.Equal(b.current.Answer, text),
		Answer:  b.current.Answer,
	}
	if out.Correct {
		b.Players[b.Turn].Score++
	}

	if b.Turn == 1 {
		b.Round++
	}
	b.Turn ^= 1

	switch {
	case b.Players[0].Score >= b.Target || b.Players[1].Score >= b.Target:
		b.done = true
	case b.Round > b.MaxRounds:
		b.done = true
	}
	if b.done {
		out.Finished = true
		out.Winner, out.Draw = b.result()
		return out, nil
	}
	b.draw()
	return out, nil
}

func (b *Battle) result() (winner string, draw bool) {
	p1, p2 := b.Players[0], b.Players[1]
	switch {
	case p1.Score > p2.Score:
		return p1.Name, false
	case p2.Score > p1.Score:
		return p2.Name, false
	default:
		return "", true
	}
}
