// Command landsim runs the fluvial landscape evolution model for a fixed
// number of steps, logging statistics and exporting the final terrain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gosuri/uiprogress"
	"github.com/mattn/go-isatty"

	"github.com/talgya/landform/internal/api"
	"github.com/talgya/landform/internal/config"
	"github.com/talgya/landform/internal/engine"
	"github.com/talgya/landform/internal/export"
	"github.com/talgya/landform/internal/persistence"
)

func main() {
	configPath := flag.String("config", "config.toml", "settings file (TOML)")
	steps := flag.Int("steps", 0, "number of steps to run")
	seed := flag.Int64("seed", 0, "terrain seed (0 = random)")
	preset := flag.String("preset", "", "terrain preset: fractal, banded or simplex")
	size := flag.Int("size", 0, "grid width and height in cells")
	exportPath := flag.String("export", "", "ASCII grid written after the run")
	dbPath := flag.String("db", "", "metrics database path (empty disables persistence)")
	serve := flag.Bool("serve", false, "serve the HTTP API and keep running after the last step")
	port := flag.Int("port", 0, "HTTP API port")
	flag.Parse()

	settings, loadErr := config.Load(*configPath)

	// Flags given on the command line win over the settings file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "steps":
			settings.MaxSteps = *steps
		case "seed":
			settings.Seed = *seed
		case "preset":
			settings.Preset = *preset
		case "size":
			settings.GridSize = *size
		case "export":
			settings.ExportPath = *exportPath
		case "db":
			settings.DBPath = *dbPath
		case "port":
			settings.APIPort = *port
		}
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.Level(),
	}))
	slog.SetDefault(logger)

	if loadErr != nil {
		slog.Warn("settings file not loaded, using defaults", "error", loadErr)
	}

	cfg, err := settings.ModelConfig()
	if err != nil {
		slog.Error("invalid settings", "error", err)
		os.Exit(1)
	}

	// ── Model ─────────────────────────────────────────────────────────
	runID := uuid.NewString()
	model := engine.NewModel(cfg)
	g := model.Grid()
	slog.Info("terrain initialised",
		"run_id", runID,
		"preset", model.Preset(),
		"seed", model.Seed(),
		"size", fmt.Sprintf("%dx%d", g.Width, g.Height),
		"cells", humanize.Comma(int64(g.Len())),
		"diffusion", model.Diffusion(),
	)

	// ── Database ──────────────────────────────────────────────────────
	db := openDB(settings.DBPath)
	if db != nil {
		defer db.Close()
		run := persistence.RunInfo{
			ID:        runID,
			Seed:      model.Seed(),
			Width:     g.Width,
			Height:    g.Height,
			Preset:    model.Preset().String(),
			Diffusion: model.Diffusion(),
		}
		if err := db.SaveRun(run); err != nil {
			slog.Error("run metadata save failed", "error", err)
		}
	}

	eng := engine.NewEngine(model)
	eng.MaxSteps = settings.MaxSteps
	eng.ReportEvery = settings.ReportEvery

	initial := eng.Snapshot()
	logSnapshot("initial statistics", initial)

	eng.OnReport = func(snap engine.Snapshot) {
		logSnapshot("statistics", snap)
		if db == nil {
			return
		}
		if err := db.LogSnapshot(snap); err != nil {
			slog.Error("metrics log failed", "step", snap.Step, "error", err)
		}
	}

	// ── Progress ──────────────────────────────────────────────────────
	progress := isatty.IsTerminal(os.Stdout.Fd()) && settings.MaxSteps > 0
	if progress {
		uiprogress.Start()
		bar := uiprogress.AddBar(settings.MaxSteps).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("step %d/%d", b.Current(), settings.MaxSteps)
		})
		eng.OnStep = func(int) { bar.Incr() }
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var srv *http.Server
	if *serve {
		if settings.AdminKey == "" {
			slog.Warn(config.EnvAdminKey + " not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Eng:      eng,
			DB:       db,
			Port:     settings.APIPort,
			AdminKey: settings.AdminKey,
			RunID:    runID,
		}
		srv = apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", settings.APIPort)
	}

	// ── Run ───────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	runErr := eng.Run(ctx)
	if progress {
		uiprogress.Stop()
	}
	if errors.Is(runErr, context.Canceled) {
		slog.Info("received signal, stopping", "step", eng.Step())
	}

	final := eng.Snapshot()
	if final.Step != initial.Step && (eng.ReportEvery <= 0 || final.Step%eng.ReportEvery != 0) {
		eng.OnReport(final)
	}

	if settings.ExportPath != "" {
		exportGrid(eng, settings.ExportPath)
	}

	fmt.Printf("\n%s steps in %s, relief %.1f -> %.1f\n",
		humanize.Comma(int64(final.Step-initial.Step)),
		time.Since(start).Round(time.Millisecond),
		initial.Stats.MaxRelief, final.Stats.MaxRelief,
	)

	if srv != nil {
		if ctx.Err() == nil {
			fmt.Println("Serving API... (Ctrl+C to stop)")
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
	}
}

// openDB opens the metrics store, returning nil when persistence is
// disabled or unavailable.
func openDB(path string) *persistence.DB {
	if path == "" {
		slog.Info("persistence disabled")
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("database directory unavailable, continuing without persistence", "dir", dir, "error", err)
			return nil
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		slog.Warn("database unavailable, continuing without persistence", "path", path, "error", err)
		return nil
	}
	slog.Info("database opened", "path", path)
	return db
}

func logSnapshot(msg string, snap engine.Snapshot) {
	st := snap.Stats
	attrs := []any{
		"step", snap.Step,
		"max_relief", fmt.Sprintf("%.2f", st.MaxRelief),
		"mean_elevation", fmt.Sprintf("%.2f", st.MeanElevation),
		"drainage_density", fmt.Sprintf("%.4f", st.DrainageDensity),
		"hack_slope", fmt.Sprintf("%.4f", st.HackSlope),
		"concavity", fmt.Sprintf("%.4f", st.Concavity),
	}
	if st.HackErr != nil {
		attrs = append(attrs, "hack_err", st.HackErr)
	}
	if st.ConcavityErr != nil {
		attrs = append(attrs, "concavity_err", st.ConcavityErr)
	}
	slog.Info(msg, attrs...)
}

func exportGrid(eng *engine.Engine, path string) {
	var err error
	eng.WithModel(func(m *engine.Model) {
		err = export.ExportASCII(path, m.Grid())
	})
	if err != nil {
		slog.Error("terrain export failed", "path", path, "error", err)
		return
	}
	size := ""
	if fi, statErr := os.Stat(path); statErr == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	slog.Info("terrain exported", "path", path, "size", size)
}
