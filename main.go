package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damoonsh/Halite/agent"
	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/ipc"
	"github.com/damoonsh/Halite/tendency"
	"github.com/damoonsh/Halite/trace"
)

const banner = `
 _           _ _ _
| |__   __ _| (_) |_ ___
| '_ \ / _' | | | __/ _ \
| | | | (_| | | | ||  __/
|_| |_|\__,_|_|_|\__\___|

Toroidal Harvest Controller`

func main() {
	var (
		socketPath  = flag.String("socket", "/tmp/halite.sock", "unix domain socket path (empty to disable)")
		wsAddr      = flag.String("ws", "", "websocket listen address, e.g. :8080 (empty to disable)")
		configPath  = flag.String("config", "", "controller config (default: built-in)")
		dbPath      = flag.String("db", "", "sqlite trace store (optional)")
		archivePath = flag.String("archive", "", "zstd jsonl trace archive (optional)")
		logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	tend, err := tendency.Compile(cfg.Tendencies)
	if err != nil {
		slog.Error("failed to compile tendencies", "error", err)
		os.Exit(1)
	}

	rec, err := openRecorder(*dbPath, *archivePath, cfg.Version)
	if err != nil {
		slog.Error("failed to open trace recorder", "error", err)
		os.Exit(1)
	}

	slog.Info("starting controller", "config", cfg.Version, "episode_steps", cfg.EpisodeSteps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := agent.NewSink(rec, 256)
	go sink.Start(ctx)

	serve := func(t ipc.Transport) {
		c := ipc.NewConnection(t, nil)
		agent.New(c, cfg, tend, sink).Register()
		if err := c.ReadLoop(); err != nil {
			slog.Warn("session ended", "player", c.Player, "error", err)
		}
	}

	if *socketPath == "" && *wsAddr == "" {
		slog.Error("nothing to listen on: set -socket or -ws")
		os.Exit(1)
	}
	if *socketPath != "" {
		if err := listenUnix(ctx, *socketPath, serve); err != nil {
			slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
			os.Exit(1)
		}
		defer os.Remove(*socketPath)
	}
	if *wsAddr != "" {
		srv := &http.Server{Addr: *wsAddr, Handler: ipc.WebSocketHandler(serve)}
		go func() {
			slog.Info("listening for websocket connections", "addr", *wsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("websocket server failed", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")
	sink.Wait()
}

// listenUnix accepts framed connections on a unix domain socket until ctx
// is done.
func listenUnix(ctx context.Context, socketPath string, serve func(ipc.Transport)) error {
	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("clean up socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	slog.Info("listening on domain socket", "path", socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go serve(ipc.NewFramed(conn))
		}
	}()
	return nil
}

func openRecorder(dbPath, archivePath, version string) (trace.Recorder, error) {
	var recs []trace.Recorder
	if dbPath != "" {
		store, err := trace.OpenStore(dbPath, version)
		if err != nil {
			return nil, err
		}
		slog.Info("recording traces", "db", dbPath, "run", store.RunID())
		recs = append(recs, store)
	}
	if archivePath != "" {
		a, err := trace.CreateArchive(archivePath)
		if err != nil {
			return nil, errors.Join(err, trace.Multi(recs...).Close())
		}
		slog.Info("archiving traces", "path", archivePath)
		recs = append(recs, a)
	}
	if len(recs) == 0 {
		return trace.Discard, nil
	}
	return trace.Multi(recs...), nil
}
