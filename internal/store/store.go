// Package store persists whole JSON documents by key. Every backend keeps
// "last write wins" semantics: a Save replaces the previous document.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Document keys shared by the bot.
const (
	KeyTrivia      = "trivia"
	KeyLyrics      = "golden_bells_lyrics"
	KeyLeaderboard = "leaderboard"
	KeyTeachings   = "teachings"
	KeyTeams       = "teams"
	KeyPrayers     = "prayers"
)

// AllKeys lists every document the bot reads at startup.
var AllKeys = []string{KeyTrivia, KeyLyrics, KeyLeaderboard, KeyTeachings, KeyTeams, KeyPrayers}

var ErrInvalidKey = errors.New("invalid document key")

type Store interface {
	// Load decodes the document stored under key into dst. found is false when
	// nothing is stored; dst is left untouched in that case.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	// Save replaces the document stored under key with the JSON encoding of v.
	Save(ctx context.Context, key string, v any) error
	Close() error
}

type Options struct {
	Backend     string
	Dir         string
	RedisURL    string
	DatabaseURL string
	KeyPrefix   string
}

// Open builds the backend selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "file":
		return NewFile(opts.Dir)
	case "redis":
		return NewRedisFromURL(ctx, opts.RedisURL, opts.KeyPrefix)
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func checkKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\:`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
