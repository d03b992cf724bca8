package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/modegate"
	"github.com/park285/goldenbells-bot/internal/msgcat"
	"github.com/park285/goldenbells-bot/internal/session"
	"github.com/park285/goldenbells-bot/internal/store"
)

const (
	room     = "room-1"
	adminID  = "900@c.us"
	annID    = "100@c.us"
	boID     = "200@c.us"
	annName  = "Ann"
	boName   = "Bo"
	prefixed = "!"
)

type fakeDirectory struct {
	members []Participant
	err     error
	panics  bool
}

func (f *fakeDirectory) Participants(ctx context.Context, chatID string) ([]Participant, error) {
	if f.panics {
		panic("directory exploded")
	}
	return f.members, f.err
}

type harness struct {
	bot     *Bot
	content *content.Store
	mem     *store.Memory
	dir     *fakeDirectory
}

func questions(n int) []content.Question {
	qs := make([]content.Question, n)
	for i := range qs {
		qs[i] = content.Question{Question: fmt.Sprintf("q%d", i+1), Answer: fmt.Sprint(i + 1)}
	}
	return qs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Save(ctx, store.KeyTrivia, map[string][]content.Question{
		"easy":   questions(12),
		"medium": questions(3),
	}))
	require.NoError(t, mem.Save(ctx, store.KeyLyrics, map[string]content.Song{
		"Amazing Grace": {Title: "Amazing Grace", Lyrics: "how sweet the sound"},
	}))
	cs, err := content.Open(ctx, mem)
	require.NoError(t, err)
	cat, err := msgcat.New("")
	require.NoError(t, err)

	dir := &fakeDirectory{}
	b, err := New(Deps{
		Config: Config{
			Prefix:           prefixed,
			BattleTarget:     2,
			BattleMaxRounds:  3,
			BattleDifficulty: content.Easy,
		},
		Content:   cs,
		Gate:      modegate.NewGate([]string{adminID}, false),
		Catalog:   cat,
		Directory: dir,
		IntN:      func(int) int { return 0 },
	})
	require.NoError(t, err)
	return &harness{bot: b, content: cs, mem: mem, dir: dir}
}

func (h *harness) say(t *testing.T, senderID, name, text string) *command.Reply {
	t.Helper()
	reply, err := h.bot.Handle(context.Background(), Inbound{ChatID: room, SenderID: senderID, SenderName: name, Text: text})
	require.NoError(t, err)
	return reply
}

func (h *harness) ann(t *testing.T, text string) *command.Reply { return h.say(t, annID, annName, text) }

func (h *harness) kind() session.Kind { return session.KindOf(h.bot.sessions.Get(room)) }

func TestChatterIsIgnored(t *testing.T) {
	h := newHarness(t)
	require.Nil(t, h.ann(t, "good morning everyone"))
	require.Nil(t, h.ann(t, "!unknowncommand"))
	require.Nil(t, h.ann(t, "   "))
}

func TestMenu(t *testing.T) {
	h := newHarness(t)
	menu := h.ann(t, "!menu")
	require.NotNil(t, menu)
	require.True(t, strings.HasPrefix(menu.Text, "📜 *Church Bot Commands* 📜"))
	require.Contains(t, menu.Text, "!bestof10 <difficulty>")
	require.Contains(t, menu.Text, "\u200b")

	help := h.ann(t, "!HELP")
	require.Equal(t, menu.Text, help.Text)
	require.Nil(t, h.ann(t, "! menu"))
}

func TestQuizFlow(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!quiz")
	require.Contains(t, r.Text, "Select a difficulty")
	require.Equal(t, session.KindPendingDifficulty, h.kind())

	r = h.ann(t, "banana")
	require.Contains(t, r.Text, "Invalid difficulty")
	require.Equal(t, session.KindPendingDifficulty, h.kind())

	r = h.ann(t, "hard")
	require.Contains(t, r.Text, "no *Hard* questions")
	require.Equal(t, session.KindPendingDifficulty, h.kind())

	r = h.ann(t, "EASY")
	require.Contains(t, r.Text, "Easy Quiz")
	require.Contains(t, r.Text, "q1")
	require.Equal(t, session.KindActiveQuiz, h.kind())

	for i := 0; i < 3; i++ {
		r = h.ann(t, "two")
		require.Contains(t, r.Text, "Incorrect")
	}
	require.Zero(t, h.content.Score(annName))
	require.Equal(t, session.KindActiveQuiz, h.kind())

	r = h.ann(t, " One ")
	require.Contains(t, r.Text, "Correct, Ann!")
	require.Equal(t, 1, h.content.Score(annName))
	require.Equal(t, session.KindNone, h.kind())

	require.Nil(t, h.ann(t, "one"))
	require.Equal(t, 1, h.content.Score(annName))
}

func TestCommandCancelsPendingDifficulty(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!quiz")

	r := h.ann(t, "!leaderboard")
	require.Contains(t, r.Text, "No scores yet")
	require.Equal(t, session.KindNone, h.kind())
	require.Nil(t, h.ann(t, "easy"))

	h.ann(t, "!quiz")
	r = h.ann(t, "!quiz")
	require.Contains(t, r.Text, "Select a difficulty")
	require.Equal(t, session.KindPendingDifficulty, h.kind())
}

func TestAdminCommandFromMemberCancelsPendingDifficulty(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!quiz")
	require.Nil(t, h.ann(t, "!resetleaderboard"))
	require.Equal(t, session.KindNone, h.kind())
	require.Nil(t, h.ann(t, "easy"))
}

func TestNewSessionReplacesOld(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!quiz")
	h.ann(t, "easy")
	require.Equal(t, session.KindActiveQuiz, h.kind())

	h.ann(t, "!bestof10 easy")
	require.Equal(t, session.KindBestOfTen, h.kind())

	h.ann(t, "!quiz")
	require.Equal(t, session.KindPendingDifficulty, h.kind())
}

func TestBestOfTenRejections(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!bestof10 medium")
	require.Contains(t, r.Text, "Not enough *Medium* questions")
	require.Equal(t, session.KindNone, h.kind())

	r = h.ann(t, "!bestof10 extreme")
	require.Contains(t, r.Text, "!bestof10 easy")
	require.Equal(t, session.KindNone, h.kind())

	r = h.ann(t, "!bestof10")
	require.Contains(t, r.Text, "!bestof10 easy")
	require.Equal(t, session.KindNone, h.kind())
}

func TestBestOfTenRun(t *testing.T) {
	h := newHarness(t)
	_, err := h.content.AddScore(context.Background(), annName, 3)
	require.NoError(t, err)

	r := h.ann(t, "!BestOf10 Easy")
	require.Contains(t, r.Text, "Question 1/10")
	require.Contains(t, r.Text, "q1")

	correct := map[int]bool{1: true, 4: true, 9: true, 10: true}
	for i := 1; i <= 10; i++ {
		guess := "wrong"
		if correct[i] {
			guess = fmt.Sprint(i)
		}
		r = h.ann(t, guess)
		if i < 10 {
			require.Contains(t, r.Text, fmt.Sprintf("Question %d/10", i+1))
			require.Equal(t, session.KindBestOfTen, h.kind())
		}
	}
	require.Contains(t, r.Text, "4/10")
	require.Equal(t, session.KindNone, h.kind())
	require.Equal(t, 7, h.content.Score(annName))
}

func TestLeaderboardTopFive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for name, score := range map[string]int{"A": 5, "B": 9, "C": 9, "D": 1, "E": 2, "F": 3} {
		_, err := h.content.AddScore(ctx, name, score)
		require.NoError(t, err)
	}
	r := h.ann(t, "!leaderboard")
	lines := strings.Split(r.Text, "\n")
	require.Len(t, lines, 6)
	require.Contains(t, lines[0], "Leaderboard")
	require.Equal(t, "*1.* B - 9 points", lines[1])
	require.Equal(t, "*2.* C - 9 points", lines[2])
	require.Equal(t, "*3.* A - 5 points", lines[3])
	require.Equal(t, "*5.* E - 2 points", lines[5])
}

func TestTeachings(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!teachings")
	require.Contains(t, r.Text, "No teachings")

	r = h.ann(t, "!addteaching Faith: Hope")
	require.Contains(t, r.Text, `Teaching "Faith" saved`)
	r = h.ann(t, "!teaching Faith")
	require.Contains(t, r.Text, "*Faith*")
	require.True(t, strings.HasSuffix(r.Text, "Hope"))

	h.ann(t, "!addteaching Love: patient: kind")
	body, ok := h.content.Teaching("Love")
	require.True(t, ok)
	require.Equal(t, "patient: kind", body)

	r = h.ann(t, "!addteaching no colon here")
	require.Contains(t, r.Text, "Usage")
	r = h.ann(t, "!addteaching")
	require.Contains(t, r.Text, "Usage")

	r = h.ann(t, "!teachings")
	require.Contains(t, r.Text, "• Faith\n• Love")

	r = h.ann(t, "!teaching faith")
	require.Contains(t, r.Text, "not found")
}

func TestLyrics(t *testing.T) {
	h := newHarness(t)
	r := h.ann(t, "!lyrics Amazing Grace")
	require.Contains(t, r.Text, "how sweet the sound")

	r = h.ann(t, "!lyrics amazing grace")
	require.Contains(t, r.Text, `Song "amazing grace" not found`)

	r = h.ann(t, "!lyrics")
	require.Contains(t, r.Text, "Usage")
}

func TestTeams(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!jointeam Alpha")
	require.Contains(t, r.Text, "Ann joined team *Alpha* (1 members)")
	r = h.ann(t, "!jointeam Alpha")
	require.Contains(t, r.Text, "already a member")
	require.Equal(t, []string{annName}, h.content.TeamMembers("Alpha"))

	h.say(t, boID, boName, "!jointeam Beta")
	h.say(t, adminID, "Cy", "!jointeam Beta")

	r = h.ann(t, "!teamleaderboard")
	require.Contains(t, r.Text, "*1.* Beta - 2 members\n*2.* Alpha - 1 members")
}

func TestPrivateMode(t *testing.T) {
	h := newHarness(t)

	require.Nil(t, h.ann(t, "!private"))
	require.Equal(t, modegate.Public, h.bot.gate.Mode())

	r := h.say(t, adminID, "Admin", "!private")
	require.Contains(t, r.Text, "Private mode enabled")
	require.Equal(t, modegate.Private, h.bot.gate.Mode())

	r = h.ann(t, "!menu")
	require.Contains(t, r.Text, "private mode")
	require.Nil(t, h.ann(t, "just chatting"))

	r = h.say(t, adminID, "Admin", "!leaderboard")
	require.Contains(t, r.Text, "No scores yet")

	require.Nil(t, h.ann(t, "!public"))
	require.Equal(t, modegate.Private, h.bot.gate.Mode())

	r = h.say(t, adminID, "Admin", "!public")
	require.Contains(t, r.Text, "Public mode enabled")

	r = h.ann(t, "!help")
	require.Contains(t, r.Text, "Commands")
}

func TestPrivateModeGatesSessionInput(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!quiz")
	h.bot.gate.SetMode(modegate.Private)

	r := h.ann(t, "easy")
	require.Contains(t, r.Text, "private mode")
	require.Equal(t, session.KindPendingDifficulty, h.kind())
}

func TestResetLeaderboard(t *testing.T) {
	h := newHarness(t)
	_, err := h.content.AddScore(context.Background(), annName, 4)
	require.NoError(t, err)

	require.Nil(t, h.ann(t, "!resetleaderboard"))
	require.Equal(t, 4, h.content.Score(annName))

	r := h.say(t, adminID, "Admin", "!resetleaderboard")
	require.Contains(t, r.Text, "reset")
	require.Empty(t, h.content.TopScores(5))
}

func TestTagAll(t *testing.T) {
	h := newHarness(t)
	h.dir.members = []Participant{{ID: "100", Name: "Ann"}, {ID: "200"}, {ID: "100", Name: "Ann"}, {ID: ""}}

	r := h.ann(t, "!tagall")
	require.Equal(t, []string{"100", "200"}, r.Mentions)
	require.Contains(t, r.Text, "@Ann\n@200")

	h.dir.err = errors.New("iris down")
	r = h.ann(t, "!tagall")
	require.Contains(t, r.Text, "Could not load the members")
	require.Empty(t, r.Mentions)
}

func TestPanicIsRecovered(t *testing.T) {
	h := newHarness(t)
	h.dir.panics = true

	reply, err := h.bot.Handle(context.Background(), Inbound{ChatID: room, SenderID: annID, SenderName: annName, Text: "!tagall"})
	require.Error(t, err)
	require.Contains(t, reply.Text, "Something went wrong")

	r := h.ann(t, "!leaderboard")
	require.NotNil(t, r)
}

func TestPersistFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!quiz")
	h.ann(t, "easy")
	h.mem.SetFailSaves(errors.New("disk full"))

	r := h.ann(t, "1")
	require.Contains(t, r.Text, "Correct, Ann!")
	require.Contains(t, r.Text, "could not be written")
	require.Equal(t, 1, h.content.Score(annName))
	require.Equal(t, session.KindNone, h.kind())
}

func TestBattle(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!battle Bo")
	require.Contains(t, r.Text, "Usage")
	r = h.ann(t, "!battle @ann")
	require.Contains(t, r.Text, "cannot battle yourself")
	r = h.ann(t, "!battle @Bo medium")
	require.Contains(t, r.Text, "Ann vs Bo")

	r = h.ann(t, "!battle @Bo easy")
	require.Contains(t, r.Text, "First to 2 correct answers, at most 3 rounds")
	require.Contains(t, r.Text, "Ann, your question")
	require.Contains(t, r.Text, "q1")
	require.Equal(t, session.KindBattle, h.kind())

	require.Nil(t, h.say(t, boID, boName, "1"))
	require.Nil(t, h.say(t, adminID, "Cy", "1"))

	r = h.ann(t, "one")
	require.Contains(t, r.Text, "Correct, Ann! Score: Ann 1 - 0 Bo")
	require.Contains(t, r.Text, "Bo, your question")

	require.Nil(t, h.ann(t, "2"))

	r = h.say(t, boID, boName, "nope")
	require.Contains(t, r.Text, "The answer was *2*")
	require.Contains(t, r.Text, "Round 2/3")

	r = h.ann(t, "3")
	require.Contains(t, r.Text, "Ann wins the battle!")
	require.Contains(t, r.Text, "Ann 2 - 0 Bo")
	require.Equal(t, session.KindNone, h.kind())
	require.Zero(t, h.content.Score(annName))
}

func TestBattleDraw(t *testing.T) {
	h := newHarness(t)
	h.ann(t, "!battle @Bo")
	var r *command.Reply
	for round := 0; round < 3; round++ {
		h.ann(t, "x")
		r = h.say(t, boID, boName, "x")
	}
	require.Contains(t, r.Text, "draw")
	require.Equal(t, session.KindNone, h.kind())
}

func TestEndBattle(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!endbattle")
	require.Contains(t, r.Text, "no battle in progress")

	h.ann(t, "!battle @Bo")
	require.Nil(t, h.say(t, "300@c.us", "Dee", "!endbattle"))
	require.Equal(t, session.KindBattle, h.kind())

	r = h.say(t, boID, boName, "!endbattle")
	require.Contains(t, r.Text, "Battle stopped by Bo")
	require.Equal(t, session.KindNone, h.kind())

	h.ann(t, "!battle @Bo")
	r = h.say(t, adminID, "Admin", "!endbattle")
	require.Contains(t, r.Text, "Battle stopped by Admin")
}

func TestPrayers(t *testing.T) {
	h := newHarness(t)

	r := h.ann(t, "!prayer healing for my mother")
	require.Contains(t, r.Text, "Thank you, Ann")

	require.Nil(t, h.ann(t, "!prayers"))

	r = h.say(t, adminID, "Admin", "!prayers")
	require.Contains(t, r.Text, "Ann: healing for my mother")
}

func TestSenderNameFallsBackToIdentity(t *testing.T) {
	h := newHarness(t)
	r := h.say(t, annID, "", "!jointeam Alpha")
	require.Contains(t, r.Text, "100 joined team")
}

func TestSampleIsDistinct(t *testing.T) {
	bank := questions(30)
	seen := map[string]bool{}
	got := sample(bank, 10, func(n int) int { return n - 1 })
	require.Len(t, got, 10)
	for _, q := range got {
		require.False(t, seen[q.Question], q.Question)
		seen[q.Question] = true
	}
	require.Len(t, sample(questions(3), 10, func(int) int { return 0 }), 3)
}

func TestChatsDoNotShareSessions(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat := fmt.Sprintf("room-%d", i+10)
			name := fmt.Sprintf("P%d", i)
			ctx := context.Background()
			_, _ = h.bot.Handle(ctx, Inbound{ChatID: chat, SenderID: name, SenderName: name, Text: "!quiz"})
			_, _ = h.bot.Handle(ctx, Inbound{ChatID: chat, SenderID: name, SenderName: name, Text: "easy"})
			_, _ = h.bot.Handle(ctx, Inbound{ChatID: chat, SenderID: name, SenderName: name, Text: "1"})
		}(i)
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		require.Equal(t, 1, h.content.Score(fmt.Sprintf("P%d", i)))
	}
}
