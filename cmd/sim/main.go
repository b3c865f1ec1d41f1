package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wildersim/wilder/internal/core/config"
	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/internal/core/physics"
	"github.com/wildersim/wilder/internal/core/spatial"
	"github.com/wildersim/wilder/internal/core/world"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	entities := flag.Int("entities", 200, "number of demo creatures to spawn")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			fmt.Println("Error opening config:", err)
			os.Exit(1)
		}
		cfg, err = config.LoadYAML(f)
		_ = f.Close()
		if err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}
	}

	logger := log.New(parseLevel(cfg.LogLevel))
	w, err := world.New(cfg, logger)
	if err != nil {
		fmt.Println("Error building world:", err)
		os.Exit(1)
	}

	if err := populate(w, cfg, *entities); err != nil {
		fmt.Println("Error spawning entities:", err)
		os.Exit(1)
	}
	logger.Info("simulation running",
		log.String("session", w.SessionID()), log.Int("entities", *entities))

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	tick := time.NewTicker(time.Second / 60)
	defer tick.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-stopCh:
			s := w.Summary()
			logger.Info("simulation stopped",
				log.Uint64("ticks", s.Tick), log.Int("entities", s.Entities))
			return
		case <-tick.C:
			if err := w.Tick(physics.DefaultFixedDt); err != nil {
				logger.Error("tick failed", log.Error(err))
				return
			}
		case <-report.C:
			s := w.Summary()
			logger.Info("tick report",
				log.Uint64("tick", s.Tick),
				log.Int("entities", s.Entities),
				log.Int("octree_nodes", s.Spatial.NodeCount),
				log.Duration("avg_frame", s.Perf.AvgFrame),
				log.Duration("p95_frame", s.Perf.P95Frame),
				log.String("physics", s.Physics.String()))
		}
	}
}

// populate drops a floor and a cloud of falling creatures into the
// world so the pipeline has something to chew on.
func populate(w *world.World, cfg *config.Config, count int) error {
	floor := models.DefaultTransform(geometry.V3(0, cfg.World.BoundsMin[1]+1, 0))
	if err := w.Spawn(1, floor, 50, 1<<0, spatial.Static); err != nil {
		return err
	}
	half := geometry.V3(
		(cfg.World.BoundsMax[0]-cfg.World.BoundsMin[0])/2, 1,
		(cfg.World.BoundsMax[2]-cfg.World.BoundsMin[2])/2,
	)
	if err := w.AttachBody(1, physics.NewBoxShape(half), physics.Static, 0); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	span := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	for i := 0; i < count; i++ {
		id := models.EntityID(i + 2)
		t := models.DefaultTransform(geometry.V3(
			span(cfg.World.BoundsMin[0]/2, cfg.World.BoundsMax[0]/2),
			span(10, cfg.World.BoundsMax[1]/2),
			span(cfg.World.BoundsMin[2]/2, cfg.World.BoundsMax[2]/2),
		))
		if err := w.Spawn(id, t, 1, 1<<1, spatial.Dynamic); err != nil {
			return err
		}
		if err := w.AttachBody(id, physics.NewSphereShape(1), physics.Dynamic, 1); err != nil {
			return err
		}
	}
	return nil
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
