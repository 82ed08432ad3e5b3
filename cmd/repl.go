package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextlevelbuilder/ikigai/internal/agent"
	"github.com/nextlevelbuilder/ikigai/internal/config"
	"github.com/nextlevelbuilder/ikigai/internal/doccache"
	"github.com/nextlevelbuilder/ikigai/internal/id"
	"github.com/nextlevelbuilder/ikigai/internal/logging"
	"github.com/nextlevelbuilder/ikigai/internal/metrics"
	"github.com/nextlevelbuilder/ikigai/internal/prompt"
	"github.com/nextlevelbuilder/ikigai/internal/providers"
	"github.com/nextlevelbuilder/ikigai/internal/store"
	"github.com/nextlevelbuilder/ikigai/internal/store/pg"
	"github.com/nextlevelbuilder/ikigai/internal/template"
)

// runRepl is the terminal front-end's bare minimum: a line-based stdin/
// stdout loop that commits each line as a user turn on the root agent and
// prints the assistant's reply. Layered scrollback rendering and input
// buffer editing are explicitly out of scope (spec §1) — this exists only
// to exercise the runtime end to end.
func runRepl(ctx context.Context) error {
	logging.Init(verbose)

	dataDir := resolveDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m := metrics.New()
	serveMetrics(cfg)

	stores, err := pg.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer stores.DB.Close()

	session, err := stores.Sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer stores.Sessions.End(context.Background(), session.ID)

	root, err := resolveRootAgent(ctx, stores, cfg, session.ID)
	if err != nil {
		return fmt.Errorf("resolve root agent: %w", err)
	}

	if cfg.AnthropicAPIKey == "" {
		fmt.Fprintln(os.Stderr, "warning: IKIGAI_ANTHROPIC_API_KEY not set; provider requests will fail")
	}
	var providerOpts []providers.AnthropicOption
	if cfg.AnthropicAPIBase != "" {
		providerOpts = append(providerOpts, providers.WithAnthropicBaseURL(cfg.AnthropicAPIBase))
	}
	if cfg.OpenAIModel != "" {
		providerOpts = append(providerOpts, providers.WithAnthropicModel(cfg.OpenAIModel))
	}
	llm := providers.NewAnthropicProvider(cfg.AnthropicAPIKey, providerOpts...)

	resolver := &prompt.Resolver{
		DataDir:             dataDir,
		DocCache:            doccache.New(doccache.DefaultResolver{DataDir: dataDir}),
		OpenAISystemMessage: cfg.OpenAISystemMessage,
	}

	rt := agent.New(agent.Config{
		AgentUUID:      root.UUID,
		Agents:         stores.Agents,
		Messages:       stores.Messages,
		Provider:       llm,
		Model:          cfg.OpenAIModel,
		MaxToolTurns:   cfg.MaxToolTurns,
		ThinkingLevel:  providers.ThinkingLevel(root.ThinkingLevel),
		PromptResolver: resolver,
		PinnedDocs:     cfg.PinnedDocuments,
		AgentCtx: &template.AgentContext{
			UUID:      root.UUID,
			Name:      root.Name,
			Provider:  root.Provider,
			Model:     root.Model,
			CreatedAt: root.CreatedAt,
		},
		ConfigCtx: template.ConfigContext{
			"openai_model": cfg.OpenAIModel,
			"db_host":      cfg.DBHost,
			"db_port":      fmt.Sprintf("%d", cfg.DBPort),
			"db_name":      cfg.DBName,
			"db_user":      cfg.DBUser,
		},
		Metrics: m,
	})

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Printf("ikigai ready. agent %s. ctrl-c to interrupt a turn, ctrl-d to exit.\n", root.UUID)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}

		result, err := rt.Turn(sigCtx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if result.Interrupted {
			fmt.Println("[interrupted]")
			continue
		}
		fmt.Println(result.Content)
	}

	return stores.Agents.MarkDead(context.Background(), root.UUID, time.Now().Unix())
}

// resolveRootAgent loads the existing root agent for this data dir, or
// creates one on first run. The root agent is identified by parent_uuid =
// NULL; spec §3 requires exactly that invariant for agent zero.
func resolveRootAgent(ctx context.Context, stores *pg.Stores, cfg *config.Config, sessionID int64) (*store.Agent, error) {
	active, err := stores.Agents.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range active {
		if a.IsRoot() {
			return a, nil
		}
	}

	root := &store.Agent{
		UUID:          id.NewUUID(),
		SessionID:     sessionID,
		Status:        store.AgentRunning,
		Provider:      cfg.DefaultProvider,
		Model:         cfg.OpenAIModel,
		ThinkingLevel: store.ThinkingNone,
		CreatedAt:     time.Now().Unix(),
	}
	if err := stores.Agents.Insert(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// serveMetrics exposes the Prometheus registry at listen_address:listen_port
// (spec §6 "listen_address, listen_port"). Failures are logged, not fatal —
// the REPL itself doesn't depend on the endpoint being reachable.
func serveMetrics(cfg *config.Config) {
	addr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
}
