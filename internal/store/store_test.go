package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var got []doc
	found, err := s.Load(ctx, KeyLeaderboard, &got)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)

	require.NoError(t, s.Save(ctx, KeyLeaderboard, []doc{{Name: "Ann", Score: 2}}))
	require.NoError(t, s.Save(ctx, KeyLeaderboard, []doc{{Name: "Ann", Score: 3}, {Name: "Bo", Score: 1}}))

	found, err = s.Load(ctx, KeyLeaderboard, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []doc{{Name: "Ann", Score: 3}, {Name: "Bo", Score: 1}}, got)

	err = s.Save(ctx, "../etc/passwd", got)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(filepath.Join(dir, "data"))
	require.NoError(t, err)
	exercise(t, s)

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	require.Equal(t, "leaderboard.json", entries[0].Name())
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"Amazing Grace": {"title": "Amazing Grace", "lyrics": "how sweet the sound"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden_bells_lyrics.json"), []byte(legacy), 0o644))

	s, err := NewFile(dir)
	require.NoError(t, err)

	var got map[string]struct {
		Title  string `json:"title"`
		Lyrics string `json:"lyrics"`
	}
	found, err := s.Load(context.Background(), KeyLyrics, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "how sweet the sound", got["Amazing Grace"].Lyrics)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trivia.json"), []byte("{not json"), 0o644))
	s, err := NewFile(dir)
	require.NoError(t, err)

	var v map[string]any
	_, err = s.Load(context.Background(), KeyTrivia, &v)
	require.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := NewRedis(context.Background(), RedisConfig{Client: rdb, Prefix: "gbtest"})
	require.NoError(t, err)
	exercise(t, s)

	require.True(t, mr.Exists("gbtest:doc:leaderboard"))
}

func TestRedisFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisFromURL(context.Background(), "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Save(context.Background(), KeyTeams, map[string][]string{"alpha": {"Ann"}}))
	require.True(t, mr.Exists("goldenbells:doc:teams"))
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryStoreFailSaves(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.SetFailSaves(boom)
	require.ErrorIs(t, m.Save(context.Background(), KeyPrayers, []string{"x"}), boom)

	var v []string
	found, err := m.Load(context.Background(), KeyPrayers, &v)
	require.NoError(t, err)
	require.False(t, found)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"})
	require.Error(t, err)

	s, err := Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)
}
