package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ascent/internal/app"
	"ascent/internal/config"
	"ascent/internal/ports"
	"ascent/internal/ports/memstore"
	"ascent/internal/ports/redisstore"
	"ascent/internal/ports/ws"
)

func main() {
	cmd := &cli.Command{
		Name:  "ascent-server",
		Usage: "cooperative climbing card game server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				Sources: cli.EnvVars("ADDR"),
			},
			&cli.StringFlag{
				Name:    "tunables",
				Usage:   "path to game tunables JSON",
				Sources: cli.EnvVars("TUNABLES_PATH"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	envCfg, err := config.ParseEnv()
	if err != nil {
		log.Error("config", zap.Error(err))
		return err
	}
	if addr := cmd.String("addr"); addr != "" {
		envCfg.Addr = addr
	}
	if path := cmd.String("tunables"); path != "" {
		envCfg.TunablesPath = path
	}

	if err := config.LoadTunables(envCfg.TunablesPath); err != nil {
		log.Error("tunables", zap.Error(err))
		return err
	}
	tun := config.GetTunables()

	rooms, stats, cleanup := buildStores(envCfg, log)
	defer cleanup()

	svc := app.NewService(rooms, stats, nil, log, app.Options{
		HandSize: tun.HandSize,
		PingTTL:  tun.PingTTL(),
		RoomTTL:  tun.RoomTTL(),
		StatsTTL: tun.StatsTTL(),
	})

	hub := ws.NewHub(svc, log)
	svc.SetSink(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              envCfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", envCfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error("server", zap.Error(err))
		return err
	}
}

// buildStores picks the persistence backend. With a redis address the
// engine survives restarts; without one it runs on process memory.
func buildStores(envCfg config.Env, log *zap.Logger) (ports.RoomStore, ports.StatsStore, func()) {
	if envCfg.RedisAddr == "" {
		log.Info("using in-memory store")
		mem := memstore.New(time.Minute)
		return mem.Rooms(), mem.Stats(), mem.Close
	}

	log.Info("using redis store", zap.String("addr", envCfg.RedisAddr))
	client := redisstore.NewClient(
		redisstore.WithAddr(envCfg.RedisAddr),
		redisstore.WithPassword(envCfg.RedisPassword),
		redisstore.WithDB(envCfg.RedisDB),
		redisstore.WithPoolSize(envCfg.RedisPoolSize),
	)
	rooms := redisstore.NewRooms(client)
	stats := redisstore.NewStats(client)
	return rooms, stats, func() { client.Close() }
}
