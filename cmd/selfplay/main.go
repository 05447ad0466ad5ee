// Command selfplay runs an offline match between copies of the controller on
// a generated world and records every decision trace.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/tendency"
	"github.com/damoonsh/Halite/trace"
	"github.com/damoonsh/Halite/worldgen"
)

func main() {
	var (
		configPath  = flag.String("config", "", "controller config (default: built-in)")
		seed        = flag.Int64("seed", 1337, "world seed (0 = random)")
		players     = flag.Int("players", 2, "number of players (2 or 4)")
		size        = flag.Int("size", 21, "grid size")
		steps       = flag.Int("steps", 0, "episode steps (default: config episode_steps)")
		dbPath      = flag.String("db", "", "sqlite trace store (optional)")
		archivePath = flag.String("archive", "", "zstd jsonl trace archive (optional)")
		verbose     = flag.Bool("v", false, "log every tick")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *seed, *players, *size, *steps, *dbPath, *archivePath); err != nil {
		slog.Error("selfplay failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, players, size, steps int, dbPath, archivePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if steps > 0 {
		cfg.EpisodeSteps = steps
	}
	tend, err := tendency.Compile(cfg.Tendencies)
	if err != nil {
		return fmt.Errorf("compile tendencies: %w", err)
	}

	gen := worldgen.DefaultGenConfig()
	gen.Seed, gen.Players, gen.Size = seed, players, size
	world, err := worldgen.Generate(gen)
	if err != nil {
		return fmt.Errorf("generate world: %w", err)
	}

	var recs []trace.Recorder
	if dbPath != "" {
		store, err := trace.OpenStore(dbPath, cfg.Version)
		if err != nil {
			return err
		}
		slog.Info("recording to store", "path", dbPath, "run", store.RunID())
		recs = append(recs, store)
	}
	if archivePath != "" {
		a, err := trace.CreateArchive(archivePath)
		if err != nil {
			return err
		}
		recs = append(recs, a)
	}
	rec := trace.Multi(recs...)
	defer func() {
		if err := rec.Close(); err != nil {
			slog.Error("close recorders", "error", err)
		}
	}()

	slog.Info("match starting", "seed", seed, "players", players, "size", size, "steps", cfg.EpisodeSteps, "config", cfg.Version)
	res := newMatch(cfg, tend, rec).play(world)

	slog.Info("match finished", "ticks", res.Ticks)
	for i, s := range res.Standings {
		fmt.Printf("%d. %s bank=%.0f units=%d bases=%d\n", i+1, s.Player, s.Bank, s.Units, s.Bases)
	}
	return nil
}
