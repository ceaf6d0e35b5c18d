package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/runicrealm/engine/internal/config"
	"github.com/runicrealm/engine/internal/core/loop"
	"github.com/runicrealm/engine/internal/game"
	"github.com/runicrealm/engine/internal/netsync"
	"github.com/runicrealm/engine/internal/persist"
	"github.com/runicrealm/engine/internal/render"
	"github.com/runicrealm/engine/internal/render/term"
	"github.com/runicrealm/engine/internal/scripting"
	"github.com/runicrealm/engine/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             runicrealm engine             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mtick:\033[0m %s  \033[1mrender:\033[0m %s  \033[1mnetwork:\033[0m %s\n\n",
		cfg.Loop.TickRate, cfg.Render.Backend, cfg.Network.Mode)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main logic ────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/runicrealm.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Scripts
	printSection("scripts")
	engine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer engine.Close()
	printOK(fmt.Sprintf("lua modules loaded from %s", cfg.Scripts.Dir))

	// 4. Snapshot store
	var repo *persist.SnapshotRepo
	if cfg.Persist.Enabled {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Persist, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := db.Migrate(dbCtx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		repo = persist.NewSnapshotRepo(db)
	}

	// 5. Network
	hub := &netsync.Hub{}
	defer hub.Close()
	var server *netsync.Server
	switch cfg.Network.Mode {
	case "server":
		server = netsync.NewServer(cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	case "client":
		printSection("network")
		peer, err := netsync.Dial(ctx, cfg.Network.URL, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
		if err != nil {
			return fmt.Errorf("network: %w", err)
		}
		hub.Add(peer)
		printOK(fmt.Sprintf("connected to %s", cfg.Network.URL))
	}
	fmt.Println()

	// 6. Render backend. Nothing may print to stdout after the terminal opens.
	var (
		backend render.Backend
		screen  *term.Backend
	)
	switch cfg.Render.Backend {
	case "term":
		screen, err = term.Open(cfg.Render.CellsPerUnit)
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer screen.Close()
		backend = screen
	default:
		backend = &render.Recorder{}
	}

	// 7. Game and level
	g := game.New(game.Options{
		Physics: cfg.Physics.Enabled,
		Assets:  os.DirFS(cfg.Assets.Dir),
		Backend: backend,
		Scripts: engine,
	}, log)

	if cfg.Network.Mode != "off" {
		reg := netsync.NewRegistry(log)
		net := netsync.NewNetwork(hub, reg.Handle, log)
		var newPeers <-chan *netsync.Peer
		if server != nil {
			newPeers = server.NewPeers()
			reg.Register(netsync.OpResync, func(*netsync.Reader) { net.Resync() })
		} else {
			g.Register(system.NewClockSyncSystem(net, g.SetGameTime))
		}
		g.EnableNetwork(net, hub, newPeers)
		if server == nil {
			// full state even if the host already sent some before we were listening
			if err := net.SendCustom(netsync.OpResync, nil); err != nil {
				return fmt.Errorf("network: %w", err)
			}
		}
	}

	if _, err := g.LoadLevel(ctx, cfg.Level.Path); err != nil {
		return fmt.Errorf("load level: %w", err)
	}

	var saver *system.PersistenceSystem
	if repo != nil {
		latest, err := repo.Latest(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if latest != nil {
			g.Restore(latest)
		}
		saver = g.EnablePersistence(repo, cfg.Persist.IntervalTicks, cfg.Persist.Keep)
	}

	// 8. Run
	sched := loop.New(loop.Config{
		TickRate:   cfg.Loop.TickRate,
		FrameRate:  cfg.Loop.FrameRate,
		MaxCatchUp: cfg.Loop.MaxCatchUp,
		MaxBacklog: cfg.Loop.MaxBacklog,
	}, g, nil, log)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	grp, gctx := errgroup.WithContext(runCtx)
	grp.Go(func() error {
		// the other goroutines follow the loop down
		defer cancelRun()
		return sched.Run(gctx)
	})
	if screen != nil {
		grp.Go(func() error { return screen.Pump(gctx, g.InputQueue(), sched.Stop) })
	}
	if server != nil {
		grp.Go(func() error { return server.ListenAndServe(gctx, cfg.Network.BindAddress) })
	}
	runErr := grp.Wait()

	// 9. Shutdown
	if saver != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := saver.SaveNow(saveCtx); err != nil {
			log.Error("final snapshot failed", zap.Error(err))
		} else {
			log.Info("final snapshot saved", zap.Uint64("tick", g.Ticks()))
		}
	}
	log.Info("engine stopped",
		zap.Uint64("ticks", sched.Ticks()),
		zap.Duration("sim_time", sched.SimTime()),
		zap.Duration("dropped", sched.Dropped()))
	return runErr
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
	if cfg.File != "" {
		// the terminal backend owns stdout and stderr
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
