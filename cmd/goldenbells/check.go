package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/botbuilder"
	"github.com/park285/goldenbells-bot/internal/command"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/irisfast"
	"github.com/park285/goldenbells-bot/internal/obslog"
)

var (
	checkRoom   string
	checkListen time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the Iris HTTP and websocket endpoints",
	Long: `check loads the configured store and prints the command table, calls Iris
/config, optionally lists the members of one room, then opens the websocket and
prints whatever arrives for a short window.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkRoom, "room", "", "Room to list members for")
	checkCmd.Flags().DurationVar(&checkListen, "listen", 10*time.Second, "How long to watch the websocket")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if cfg.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	out := cmd.OutOrStdout()

	deps, err := botbuilder.New(cmd.Context(), cfg, nil, obslog.L())
	if err != nil {
		fmt.Fprintf(out, "store error: %v\n", err)
	} else {
		printBotSummary(out, cfg.StoreBackend, deps.Content, deps.Bot.Commands())
		if err := deps.Close(); err != nil {
			obslog.L().Warn("store_close_error", zap.Error(err))
		}
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.Headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	ic, err := client.GetConfig(ctx)
	if err != nil {
		fmt.Fprintf(out, "/config error: %v\n", err)
	} else {
		fmt.Fprintf(out, "/config ok: port=%d polling=%d rate=%d endpoint=%s\n", ic.Port, ic.PollingSpeed, ic.MessageRate, ic.WebserverEndpoint)
	}

	if checkRoom != "" {
		members, err := client.Members(ctx, checkRoom)
		if err != nil {
			fmt.Fprintf(out, "members error: %v\n", err)
		} else {
			fmt.Fprintf(out, "members ok: %d in %s\n", len(members), checkRoom)
		}
	}

	if cfg.IrisWSURL == "" {
		fmt.Fprintln(out, "IRIS_WS_URL not set; skipping websocket check")
		return nil
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, irisfast.WithWSHeaders(cfg.Headers), irisfast.WithMaxReconnect(0))
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		fmt.Fprintf(out, "ws state: %s\n", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Fprintf(out, "ws msg room=%s from=%s text=%q\n", msg.Room, msg.SenderName(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		return fmt.Errorf("ws connect: %w", err)
	}

	select {
	case <-time.After(checkListen):
	case <-cmd.Context().Done():
	}
	return ws.Close(context.Background())
}

func printBotSummary(out io.Writer, backend string, cs *content.Store, table *command.Table) {
	counts := make([]string, 0, len(content.Difficulties))
	for _, d := range content.Difficulties {
		counts = append(counts, fmt.Sprintf("%s=%d", d, cs.QuestionCount(d)))
	}
	fmt.Fprintf(out, "store ok: backend=%s trivia %s\n", backend, strings.Join(counts, " "))
	fmt.Fprintf(out, "commands: %s\n", commandList(table))
}

// commandList renders the table as "!menu|!help !quiz ...", admin commands marked with *.
func commandList(table *command.Table) string {
	p := table.Prefix()
	names := make([]string, 0, len(table.Specs()))
	for _, s := range table.Specs() {
		forms := []string{p + s.Name}
		for _, a := range s.Aliases {
			forms = append(forms, p+a)
		}
		name := strings.Join(forms, "|")
		if s.AdminOnly {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, " ")
}
