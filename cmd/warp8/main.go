package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/warp8/engine/internal/component"
	"github.com/warp8/engine/internal/config"
	"github.com/warp8/engine/internal/core/event"
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/persist"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/scripting"
	"github.com/warp8/engine/internal/system"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/warp8.toml"
	if p := os.Getenv("WARP8_CONFIG"); p != "" {
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

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	// 3. Lua hooks
	var scripts *scripting.Engine
	if cfg.Scripting.Enabled {
		scripts, err = scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer scripts.Close()
		log.Info("lua engine ready", zap.String("dir", cfg.Scripting.Dir))
	}

	// 4. Optional kill log
	var kills *persist.KillRepo
	var match uuid.UUID
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		kills = persist.NewKillRepo(db)
		match, err = kills.StartMatch(ctx, cfg.World.File, cfg.Sim.Seed)
		cancel()
		if err != nil {
			return err
		}
		log.Info("match started", zap.String("match", match.String()))
	}

	// 5. World
	clk := coresys.NewClock(cfg.Sim.Rate)
	clk.Variable = cfg.Sim.Variable
	clk.MaxCatchup = cfg.Sim.MaxCatchup
	if cfg.Sim.MaxStep > 0 {
		clk.MaxStep = cfg.Sim.MaxStep
	}
	bus := event.NewBus()
	w := world.New(clk, bus, log.Named("world"), cfg.Sim.Seed)
	phys := physics.NewBridge(w)
	phys.QueryCap = cfg.World.QueryCap
	set := component.RegisterAll(w, phys)
	if scripts != nil {
		set.SetDamageModifier(scripts.DamageModifier(set))
	}

	if err := w.LoadFile(cfg.World.File); err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	if w.Bounds().Wall {
		phys.CreateWalls()
	}
	if cfg.World.SpawnList != "" {
		entries, err := data.LoadSpawnList(cfg.World.SpawnList)
		if err != nil {
			return err
		}
		n := w.PlaceSpawns(entries)
		log.Info("spawn list placed", zap.Int("entities", n))
	}
	log.Info("world ready", zap.Int("entities", w.Len()), zap.Uint64("checksum", w.Checksum()))

	// 6. Systems
	runner := coresys.NewRunner()
	system.RegisterCore(runner, w, phys, log.Named("system"))
	if scripts != nil {
		system.BindScriptHooks(w, scripts)
	}
	var persistSys *system.PersistSystem
	if kills != nil {
		persistSys = system.NewPersistSystem(w, kills, match, log.Named("persist"), cfg.Database.FlushInterval)
		runner.Register(persistSys)
	}

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.Step())
	defer ticker.Stop()

	log.Info("simulation running", zap.Float64("rate", clk.Rate), zap.Bool("variable", clk.Variable))
	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			n := clk.Accumulate(now.Sub(last))
			last = now
			for range n {
				runner.Tick(clk)
			}
		case sig := <-shutdownCh:
			log.Info("shutting down",
				zap.String("signal", sig.String()),
				zap.Uint32("turn", clk.Turn),
				zap.Uint64("checksum", w.Checksum()),
			)
			if persistSys != nil {
				persistSys.Close()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := kills.EndMatch(ctx, match); err != nil {
					log.Error("end match", zap.Error(err))
				}
				cancel()
			}
			w.DeleteAll()
			return nil
		}
	}
}

// startProfile starts pkg/profile in the configured mode and returns its
// stop function, or nil when profiling is off.
func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Dir), profile.NoShutdownHook)
	return p.Stop
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
