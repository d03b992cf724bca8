package botbuilder

import (
	"context"

	"github.com/park285/goldenbells-bot/internal/bot"
	"github.com/park285/goldenbells-bot/internal/irisfast"
)

// MemberLister is the part of the Iris client the directory needs.
type MemberLister interface {
	Members(ctx context.Context, room string) ([]irisfast.Member, error)
}

// IrisDirectory resolves chat participants through Iris.
type IrisDirectory struct {
	Client MemberLister
}

func (d IrisDirectory) Participants(ctx context.Context, chatID string) ([]bot.Participant, error) {
	members, err := d.Client.Members(ctx, chatID)
	if err != nil {
		return nil, err
	}
	out := make([]bot.Participant, 0, len(members))
	for _, m := range members {
		out = append(out, bot.Participant{ID: m.UserID, Name: m.Nickname})
	}
	return out, nil
}
