// Command agentgroup runs a group chat from a YAML group file or a built-in
// preset on the console.
//
// Usage:
//
//	agentgroup [-group art|github|lights|path/to/group.yaml] [-env .env] [-repo owner/name]
//
// The model backend, logging, tool rate limit, Redis history store and
// metrics endpoint are configured through the environment (see package
// config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentgroup"
	"github.com/hupe1980/agentgroup/config"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/internal/demo"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/session"
	redisstore "github.com/hupe1980/agentgroup/session/redis"
	"github.com/hupe1980/agentgroup/tool"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("agentgroup", flag.ContinueOnError)
	groupFlag := fs.String("group", "", "group file or preset (art, github, lights); overrides AGENTGROUP_GROUP_FILE")
	envFile := fs.String("env", ".env", "dotenv file to load")
	repo := fs.String("repo", "", "repository the github preset works on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		return err
	}

	logger, syncLogger, err := newLogger(env)
	if err != nil {
		return err
	}
	defer syncLogger()

	group, err := loadGroup(firstNonEmpty(*groupFlag, env.Chat.GroupFile, "art"))
	if err != nil {
		return err
	}
	if *repo != "" {
		if group.Vars == nil {
			group.Vars = map[string]any{}
		}
		group.Vars["repo"] = *repo
	}

	llm, err := newBackend(env)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(promReg)
	if env.Metrics.Addr != "" {
		shutdown := serveMetrics(env.Metrics.Addr, promReg, logger)
		defer shutdown()
	}

	store, closeStore, err := newStore(ctx, env, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	chain := interceptor.NewChain(interceptor.NewAudit(func(o *interceptor.AuditOptions) {
		o.Logger = logger
	}))
	if env.Chat.ToolRate > 0 {
		chain = chain.Append(interceptor.NewRateLimit(env.Chat.ToolRate, env.Chat.ToolBurst))
	}
	chain = chain.Append(interceptor.NewMetrics(collectors))

	con := newConsole(stdin, stdout, env.LLM.Stream)

	team, err := config.Build(group, func(o *config.BuildOptions) {
		o.Registry = registry
		o.Model = llm
		o.Interceptors = chain
		o.Logger = logger
		o.Metrics = collectors
		o.Stream = env.LLM.Stream
		o.OnPartial = con.partial
		o.MaxIterations = env.Chat.MaxIterations
	})
	if err != nil {
		return err
	}

	ag := agentgroup.New(func(o *agentgroup.Options) {
		o.Store = store
		o.Logger = logger
		o.Metrics = collectors
	})

	s, err := ag.StartSession(team.Participants, team.Config)
	if err != nil {
		return err
	}

	logger.Info("console.started",
		"group.name", team.Name,
		"session.id", s.ID(),
		"llm.provider", llm.Info().Provider,
		"llm.model", llm.Info().Name,
	)

	return con.loop(ctx, s, team.TurnsPerInput)
}

func newLogger(env *config.Env) (logging.Logger, func(), error) {
	level := logging.ParseLevel(env.App.LogLevel)

	if env.App.LogFormat == "zap" {
		zl, err := logging.NewZapLogger(level, env.App.Env)
		if err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
		return zl, func() { _ = zl.Sync() }, nil
	}

	return logging.NewSlogLogger(level, env.App.LogFormat, os.Stderr), func() {}, nil
}

func loadGroup(name string) (*config.Group, error) {
	switch name {
	case "art":
		return config.DefaultGroup(), nil
	case "github":
		return config.GitHubGroup(), nil
	case "lights":
		return config.LightsGroup(), nil
	default:
		return config.LoadGroup(name)
	}
}

// newRegistry holds every tool the presets reference. The GitHub tools are
// remote tools whose provider is not wired in, so calls fail cleanly.
func newRegistry() (*tool.Registry, error) {
	tools := demo.NewLights().Tools()
	tools = append(tools, tool.FromProvider(demo.GitHubDescriptors(), demo.UnconfiguredGitHub)...)
	return tool.NewRegistry(tools...)
}

func newStore(ctx context.Context, env *config.Env, logger logging.Logger) (session.Store, func(), error) {
	if env.Redis.Addr == "" {
		return session.NewInMemoryStore(), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     env.Redis.Addr,
		Password: env.Redis.Password,
		DB:       env.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", env.Redis.Addr, err)
	}

	logger.Info("store.redis.connected", "redis.addr", env.Redis.Addr, "redis.db", env.Redis.DB)
	return redisstore.NewStore(client), func() { _ = client.Close() }, nil
}

func serveMetrics(addr string, g prometheus.Gatherer, logger logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics.listening", "metrics.addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics.serve.error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
