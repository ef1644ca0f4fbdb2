package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	server "dustveil/server"
	"dustveil/server/internal/net/ws"
	"dustveil/server/logging"
	loggingsinks "dustveil/server/logging/sinks"
)

type Config struct {
	Logger *log.Logger
}

// Run wires the logging router, the hub, and the HTTP surface, then serves
// until the listener fails. Configuration comes from the environment:
//
//	ADDR           listen address (default :8080)
//	TICK_RATE      simulation ticks per second
//	WORLD_SEED     deterministic terrain and loot seed
//	DIFFICULTY     initial difficulty level
//	LOG_SINKS      comma-separated sink names (console, json)
//	LOG_JSON_PATH  output path for the json sink
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	logConfig := logging.DefaultConfig()
	if raw := os.Getenv("LOG_SINKS"); raw != "" {
		logConfig.EnabledSinks = strings.Split(raw, ",")
	}
	if path := os.Getenv("LOG_JSON_PATH"); path != "" {
		logConfig.JSON.FilePath = path
	}

	var namedSinks []logging.NamedSink
	if logConfig.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingsinks.NewConsoleSink(os.Stdout),
		})
	}
	if logConfig.HasSink("json") && logConfig.JSON.FilePath != "" {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open json log file: %w", err)
		}
		defer file.Close()
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	roomCfg := server.RoomConfig{
		Seed:       os.Getenv("WORLD_SEED"),
		Difficulty: server.Difficulty(os.Getenv("DIFFICULTY")),
	}
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			roomCfg.TickRate = value
		} else {
			logger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}

	hub := server.NewHub("arena", roomCfg, router, logger)
	handler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"running": hub.Running(),
		})
	})
	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		connections, telemetry := hub.DiagnosticsSnapshot()
		stats := router.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"connections": connections,
			"telemetry":   telemetry,
			"logging": map[string]uint64{
				"eventsTotal":  stats.EventsTotal,
				"droppedTotal": stats.DroppedTotal,
			},
		})
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	logger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
