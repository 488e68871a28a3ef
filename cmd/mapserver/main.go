// Command mapserver serves the map generation HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/talgya/hexforge/internal/api"
	"github.com/talgya/hexforge/internal/entropy"
	"github.com/talgya/hexforge/internal/persistence"
	"github.com/talgya/hexforge/internal/ruleset"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	dsn := envOrDefault("HEXFORGE_DB", "data/maps.db")
	port := envIntOrDefault("HEXFORGE_PORT", 8080)
	rulesPath := os.Getenv("HEXFORGE_RULES")

	// ── Database ──────────────────────────────────────────────────────
	if !strings.Contains(dsn, "://") {
		os.MkdirAll(filepath.Dir(dsn), 0755)
	}
	db, err := persistence.Open(dsn)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "dsn", redact(dsn))

	// ── Ruleset ───────────────────────────────────────────────────────
	rules := ruleset.Default()
	if rulesPath != "" {
		if rules, err = ruleset.Load(rulesPath); err != nil {
			slog.Error("failed to load ruleset", "path", rulesPath, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("ruleset ready", "name", rules.Name, "terrains", len(rules.Terrains), "resources", len(rules.Resources))

	// ── Seeds ─────────────────────────────────────────────────────────
	seeds := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
	if seeds.Enabled() {
		slog.Info("random.org seeds enabled")
	} else {
		slog.Warn("RANDOM_ORG_API_KEY not set, unseeded requests use crypto/rand")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("HEXFORGE_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("HEXFORGE_ADMIN_KEY not set, map creation and deletion are disabled")
	}

	apiServer := &api.Server{
		DB:            db,
		Rules:         rules,
		Seeds:         seeds,
		Port:          port,
		AdminKey:      adminKey,
		GenerateLimit: envIntOrDefault("HEXFORGE_GENERATE_LIMIT", 0),
	}
	srv := apiServer.Start()
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// redact hides the password of a postgres URL.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
