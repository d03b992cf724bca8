// Package content owns the bot's tables (trivia, lyrics, leaderboard, teachings,
// teams, prayers) and writes every mutation through to the document store.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/park285/goldenbells-bot/internal/store"
)

// ErrPersist marks a mutation that was applied in memory but could not be saved.
var ErrPersist = errors.New("content: persist failed")

var ErrEmptyName = errors.New("content: empty name")

type Store struct {
	docs store.Store
	now  func() time.Time

	triviaMu sync.RWMutex
	trivia   map[Difficulty][]Question
	lyrics   map[string]Song

	lbMu        sync.Mutex
	leaderboard map[string]int

	teachMu   sync.Mutex
	teachings map[string]string

	teamMu sync.Mutex
	teams  map[string][]string

	prayMu  sync.Mutex
	prayers []Prayer
}

// Open loads every table from docs. Missing documents become empty tables; a document
// that cannot be decoded fails the whole load.
func Open(ctx context.Context, docs store.Store) (*Store, error) {
	if docs == nil {
		return nil, errors.New("content: nil document store")
	}
	s := &Store{docs: docs, now: time.Now}

	var (
		trivia      map[Difficulty][]Question
		lyrics      map[string]Song
		leaderboard map[string]int
		teachings   map[string]string
		teams       map[string][]string
		prayers     []Prayer
	)
	g, gctx := errgroup.WithContext(ctx)
	load := func(key string, dst any) {
		g.Go(func() error {
			if _, err := docs.Load(gctx, key, dst); err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}
			return nil
		})
	}
	load(store.KeyTrivia, &trivia)
	load(store.KeyLyrics, &lyrics)
	load(store.KeyLeaderboard, &leaderboard)
	load(store.KeyTeachings, &teachings)
	load(store.KeyTeams, &teams)
	load(store.KeyPrayers, &prayers)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.trivia = normalizeTrivia(trivia)
	s.lyrics = orEmpty(lyrics)
	s.leaderboard = orEmpty(leaderboard)
	s.teachings = orEmpty(teachings)
	s.teams = orEmpty(teams)
	s.prayers = prayers
	return s, nil
}

// SetClock overrides the time source used for prayer timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func orEmpty[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return m
}

// normalizeTrivia lowercases bank tags and drops entries with no question or answer.
func normalizeTrivia(in map[Difficulty][]Question) map[Difficulty][]Question {
	out := make(map[Difficulty][]Question, len(Difficulties))
	for tag, qs := range in {
		d, ok := ParseDifficulty(string(tag))
		if !ok {
			continue
		}
		for _, q := range qs {
			if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
				continue
			}
			out[d] = append(out[d], q)
		}
	}
	return out
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	if err := s.docs.Save(ctx, key, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
	}
	return nil
}

// ---- trivia / lyrics (read-only at runtime)

// Questions returns a copy of the bank for d.
func (s *Store) Questions(d Difficulty) []Question {
	s.triviaMu.RLock()
	defer s.triviaMu.RUnlock()
	qs := s.trivia[d]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}

func (s *Store) QuestionCount(d Difficulty) int {
	s.triviaMu.RLock()
	defer s.triviaMu.RUnlock()
	return len(s.trivia[d])
}

// Song is an exact, case-sensitive lookup by song name.
func (s *Store) Song(name string) (Song, bool) {
	s.triviaMu.RLock()
	defer s.triviaMu.RUnlock()
	song, ok := s.lyrics[strings.TrimSpace(name)]
	return song, ok
}

// ---- leaderboard

// AddScore adds delta to name's total and returns the new total.
func (s *Store) AddScore(ctx context.Context, name string, delta int) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}
	s.lbMu.Lock()
	defer s.lbMu.Unlock()
	s.leaderboard[name] += delta
	total := s.leaderboard[name]
	return total, s.persist(ctx, store.KeyLeaderboard, s.leaderboard)
}

func (s *Store) Score(name string) int {
	s.lbMu.Lock()
	defer s.lbMu.Unlock()
	return s.leaderboard[strings.TrimSpace(name)]
}

// TopScores returns up to n entries by score descending; equal scores are ordered by name.
func (s *Store) TopScores(n int) []ScoreEntry {
	s.lbMu.Lock()
	entries := make([]ScoreEntry, 0, len(s.leaderboard))
	for name, score := range s.leaderboard {
		entries = append(entries, ScoreEntry{Name: name, Score: score})
	}
	s.lbMu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (s *Store) ResetLeaderboard(ctx context.Context) error {
	s.lbMu.Lock()
	defer s.lbMu.Unlock()
	s.leaderboard = make(map[string]int)
	return s.persist(ctx, store.KeyLeaderboard, s.leaderboard)
}

// ---- teachings

// PutTeaching stores body under title, replacing any earlier body. replaced reports
// whether the title already existed.
func (s *Store) PutTeaching(ctx context.Context, title, body string) (replaced bool, err error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, ErrEmptyName
	}
	s.teachMu.Lock()
	defer s.teachMu.Unlock()
	_, replaced = s.teachings[title]
	s.teachings[title] = strings.TrimSpace(body)
	return replaced, s.persist(ctx, store.KeyTeachings, s.teachings)
}

func (s *Store) Teaching(title string) (string, bool) {
	s.teachMu.Lock()
	defer s.teachMu.Unlock()
	body, ok := s.teachings[strings.TrimSpace(title)]
	return body, ok
}

func (s *Store) TeachingTitles() []string {
	s.teachMu.Lock()
	titles := make([]string, 0, len(s.teachings))
	for t := range s.teachings {
		titles = append(titles, t)
	}
	s.teachMu.Unlock()
	sort.Strings(titles)
	return titles
}

// ---- teams

// JoinTeam appends member to team. joined is false (and nothing is saved) when the
// member is already on the roster. count is the roster size afterwards.
func (s *Store) JoinTeam(ctx context.Context, team, member string) (joined bool, count int, err error) {
	team = strings.TrimSpace(team)
	member = strings.TrimSpace(member)
	if team == "" || member == "" {
		return false, 0, ErrEmptyName
	}
	s.teamMu.Lock()
	defer s.teamMu.Unlock()
	roster := s.teams[team]
	for _, m := range roster {
		if m == member {
			return false, len(roster), nil
		}
	}
	s.teams[team] = append(roster, member)
	return true, len(roster) + 1, s.persist(ctx, store.KeyTeams, s.teams)
}

func (s *Store) TeamMembers(team string) []string {
	s.teamMu.Lock()
	defer s.teamMu.Unlock()
	roster := s.teams[strings.TrimSpace(team)]
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

// TeamSizes lists every team by member count descending, then by name.
func (s *Store) TeamSizes() []TeamSize {
	s.teamMu.Lock()
	sizes := make([]TeamSize, 0, len(s.teams))
	for team, roster := range s.teams {
		sizes = append(sizes, TeamSize{Team: team, Count: len(roster)})
	}
	s.teamMu.Unlock()
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].Count != sizes[j].Count {
			return sizes[i].Count > sizes[j].Count
		}
		return sizes[i].Team < sizes[j].Team
	})
	return sizes
}

// ---- prayers

func (s *Store) AddPrayer(ctx context.Context, name, request, chat string) (Prayer, error) {
	p := Prayer{
		Name:    strings.TrimSpace(name),
		Request: strings.TrimSpace(request),
		Chat:    chat,
		At:      s.now().UTC(),
	}
	if p.Request == "" {
		return Prayer{}, ErrEmptyName
	}
	s.prayMu.Lock()
	defer s.prayMu.Unlock()
	s.prayers = append(s.prayers, p)
	return p, s.persist(ctx, store.KeyPrayers, s.prayers)
}

// RecentPrayers returns up to n requests, newest first.
func (s *Store) RecentPrayers(n int) []Prayer {
	s.prayMu.Lock()
	defer s.prayMu.Unlock()
	if n < 0 || n > len(s.prayers) {
		n = len(s.prayers)
	}
	out := make([]Prayer, 0, n)
	for i := len(s.prayers) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.prayers[i])
	}
	return out
}
