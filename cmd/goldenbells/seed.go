package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/botbuilder"
	"github.com/park285/goldenbells-bot/internal/obslog"
	"github.com/park285/goldenbells-bot/internal/store"
)

var seedFrom string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the JSON documents from a data directory into the configured store",
	Long: `seed reads trivia.json, golden_bells_lyrics.json and the other documents from
--from and writes each one that exists into STORE_BACKEND. Documents missing
from the directory are left alone in the target.

Example:
  STORE_BACKEND=redis REDIS_URL=redis://localhost:6379 goldenbells seed --from ./data`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFrom, "from", "data", "Directory holding the <key>.json documents")
}

func runSeed(cmd *cobra.Command, args []string) error {
	src, err := store.NewFile(seedFrom)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := botbuilder.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open target store: %w", err)
	}
	defer dst.Close()

	n, err := seedDocuments(cmd.Context(), src, dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d documents into %s\n", n, cfg.StoreBackend)
	return nil
}

func seedDocuments(ctx context.Context, src, dst store.Store) (int, error) {
	copied := 0
	for _, key := range store.AllKeys {
		var raw json.RawMessage
		found, err := src.Load(ctx, key, &raw)
		if err != nil {
			return copied, fmt.Errorf("read %s: %w", key, err)
		}
		if !found {
			obslog.L().Info("seed_skip", zap.String("key", key))
			continue
		}
		if err := dst.Save(ctx, key, raw); err != nil {
			return copied, fmt.Errorf("write %s: %w", key, err)
		}
		obslog.L().Info("seed_copy", zap.String("key", key), zap.Int("bytes", len(raw)))
		copied++
	}
	return copied, nil
}
