package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/obslog"
	"github.com/park285/goldenbells-bot/internal/util"
)

const leaderboardSize = 5

func (b *Bot) handleLyrics(ctx context.Context, req *command.Request) (*command.Reply, error) {
	song, ok := b.content.Song(req.Args)
	if !ok {
		return b.textReply("lyrics.not_found", map[string]any{"Name": req.Args}), nil
	}
	name := song.Title
	if strings.TrimSpace(name) == "" {
		name = req.Args
	}
	text := b.render("lyrics.found", map[string]any{"Title": name, "Lyrics": song.Lyrics})
	return command.Text(util.FoldLong(text)), nil
}

func (b *Bot) handleLeaderboard(ctx context.Context, req *command.Request) (*command.Reply, error) {
	top := b.content.TopScores(leaderboardSize)
	if len(top) == 0 {
		return b.textReply("leaderboard.empty", nil), nil
	}
	lines := []string{b.render("leaderboard.header", nil)}
	for i, e := range top {
		lines = append(lines, b.render("leaderboard.row", map[string]any{
			"Rank":  i + 1,
			"Name":  e.Name,
			"Score": e.Score,
		}))
	}
	return command.Text(strings.Join(lines, "\n")), nil
}

// handleAddTeaching splits "<title>: <body>" at the first colon.
func (b *Bot) handleAddTeaching(ctx context.Context, req *command.Request) (*command.Reply, error) {
	title, body, ok := strings.Cut(req.Args, ":")
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if !ok || title == "" || body == "" {
		return b.textReply("teaching.add_usage", nil), nil
	}
	_, err := b.content.PutTeaching(ctx, title, body)
	return b.textReply("teaching.saved", map[string]any{"Title": title}), err
}

func (b *Bot) handleTeachings(ctx context.Context, req *command.Request) (*command.Reply, error) {
	titles := b.content.TeachingTitles()
	if len(titles) == 0 {
		return b.textReply("teaching.list_empty", nil), nil
	}
	lines := []string{b.render("teaching.list_header", nil)}
	for _, t := range titles {
		lines = append(lines, b.render("teaching.list_row", map[string]any{"Title": t}))
	}
	return command.Text(util.FoldLong(strings.Join(lines, "\n"))), nil
}

func (b *Bot) handleTeaching(ctx context.Context, req *command.Request) (*command.Reply, error) {
	body, ok := b.content.Teaching(req.Args)
	if !ok {
		return b.textReply("teaching.not_found", map[string]any{"Title": req.Args}), nil
	}
	text := b.render("teaching.body", map[string]any{"Title": req.Args, "Body": body})
	return command.Text(util.FoldLong(text)), nil
}

func (b *Bot) handleJoinTeam(ctx context.Context, req *command.Request) (*command.Reply, error) {
	team := req.Args
	joined, count, err := b.content.JoinTeam(ctx, team, req.SenderName)
	if !joined && err == nil {
		return b.textReply("team.already", map[string]any{"Name": req.SenderName, "Team": team}), nil
	}
	return b.textReply("team.joined", map[string]any{
		"Name":  req.SenderName,
		"Team":  team,
		"Count": count,
	}), err
}

func (b *Bot) handleTeamLeaderboard(ctx context.Context, req *command.Request) (*command.Reply, error) {
	sizes := b.content.TeamSizes()
	if len(sizes) == 0 {
		return b.textReply("team.empty", nil), nil
	}
	lines := []string{b.render("team.list_header", nil)}
	for i, s := range sizes {
		lines = append(lines, b.render("team.row", map[string]any{
			"Rank":  i + 1,
			"Team":  s.Team,
			"Count": s.Count,
		}))
	}
	return command.Text(strings.Join(lines, "\n")), nil
}

// handleTagAll mentions every member of the chat.
func (b *Bot) handleTagAll(ctx context.Context, req *command.Request) (*command.Reply, error) {
	if b.dir == nil {
		obslog.L().Warn("tagall_failed", zap.String("room", req.ChatID), zap.Error(errNoDirectory))
		return b.textReply("tagall.failed", nil), nil
	}
	members, err := b.dir.Participants(ctx, req.ChatID)
	if err != nil {
		obslog.L().Warn("tagall_failed", zap.String("room", req.ChatID), zap.Error(err))
		return b.textReply("tagall.failed", nil), nil
	}

	lines := []string{b.render("tagall.header", nil)}
	mentions := make([]string, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = id
		}
		mentions = append(mentions, id)
		lines = append(lines, "@"+name)
	}
	if len(mentions) == 0 {
		return b.textReply("tagall.empty", nil), nil
	}
	return &command.Reply{Text: strings.Join(lines, "\n"), Mentions: mentions}, nil
}

func (b *Bot) handlePrayer(ctx context.Context, req *command.Request) (*command.Reply, error) {
	_, err := b.content.AddPrayer(ctx, req.SenderName, req.Args, req.ChatID)
	return b.textReply("prayer.saved", map[string]any{"Name": req.SenderName}), err
}
