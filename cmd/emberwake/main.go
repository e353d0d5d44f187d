package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/core/event"
	"github.com/emberwake/server/internal/core/sched"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/gateway"
	"github.com/emberwake/server/internal/handler"
	"github.com/emberwake/server/internal/persist"
	"github.com/emberwake/server/internal/scripting"
	"github.com/emberwake/server/internal/system"
	"github.com/emberwake/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Emberwake  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      side-scroller simulation server      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("EMBERWAKE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(bootCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("postgres connected")

	if err := persist.RunMigrations(bootCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	playerRepo := persist.NewPlayerRepo(db)
	leaderboardRepo := persist.NewLeaderboardRepo(db)

	// 4. Load reference data
	printSection("reference data")

	enemies, err := data.LoadEnemyTable(filepath.Join(cfg.Data.Dir, "enemies.yaml"))
	if err != nil {
		return fmt.Errorf("load enemies: %w", err)
	}
	printStat("enemy templates", enemies.Count())

	bosses, err := data.LoadBossTable(filepath.Join(cfg.Data.Dir, "bosses.yaml"))
	if err != nil {
		return fmt.Errorf("load bosses: %w", err)
	}
	printStat("boss templates", bosses.Count())

	routeEntries, err := data.LoadRouteList(filepath.Join(cfg.Data.Dir, "routes.yaml"))
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}
	printStat("spawn routes", len(routeEntries))

	jobs, err := data.LoadJobTable(filepath.Join(cfg.Data.Dir, "jobs.yaml"))
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	printStat("jobs", jobs.Count())

	// 5. Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")

	// 6. World store: seed routes, rehydrate players
	bus := event.NewBus()
	store := world.NewStore(bus, log)

	routes := make([]world.Route, 0, len(routeEntries))
	for _, e := range routeEntries {
		routes = append(routes, handler.RouteFromEntry(e))
	}
	playerRows, err := playerRepo.LoadAll(bootCtx)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	_ = store.Exec("boot", func(tx *world.Tx) error {
		tx.ReplaceRoutes(routes)
		for _, row := range playerRows {
			tx.PutPlayer(system.PlayerFromRow(row))
		}
		return nil
	})
	printStat("players loaded", len(playerRows))
	fmt.Println()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	deps := &handler.Deps{
		Store:     store,
		Config:    cfg,
		Log:       log,
		Enemies:   enemies,
		Bosses:    bosses,
		Jobs:      jobs,
		Routes:    routeEntries,
		Scripting: luaEngine,
		Rng:       rng,
	}

	// 7. Gateway subscribes before the first job can commit anything.
	hub := gateway.NewHub(deps, log)
	bus.Subscribe(hub.Publish)

	// 8. Simulation jobs
	persistJob := system.NewPersistJob(store, playerRepo, cfg, log)

	scheduler := sched.New(log)
	scheduler.Register(system.NewSpawnJob(store, enemies, bosses, cfg.Sim.SpawnInterval, rng, log))
	scheduler.Register(system.NewPatrolJob(store, enemies, cfg, log))
	scheduler.Register(system.NewBossJob(store, enemies, bosses, luaEngine, cfg, rng, log))
	scheduler.Register(system.NewCleanupJob(store, cfg, log))
	scheduler.Register(system.NewBroadcastSweepJob(store, cfg, log))
	scheduler.Register(system.NewLeaderboardJob(store, jobs, leaderboardRepo, cfg, log))
	scheduler.Register(persistJob)

	// 9. Serve until a shutdown signal lands
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(runCtx)

	httpServer := &http.Server{
		Addr:    cfg.Gateway.BindAddress,
		Handler: hub.Handler(),
	}
	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Gateway.BindAddress))
	printReady(fmt.Sprintf("simulation running (patrol tick: %s)", cfg.Sim.PatrolInterval))
	fmt.Println()

	select {
	case err := <-httpErr:
		return fmt.Errorf("http server: %w", err)
	case <-runCtx.Done():
	}
	log.Info("shutdown signal received")

	// 10. Drain: stop intake, stop jobs, save everyone
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()

	if err := httpServer.Shutdown(shutCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	hub.Close()
	scheduler.Wait()

	if err := persistJob.SaveAll(shutCtx); err != nil {
		log.Error("final save failed", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
