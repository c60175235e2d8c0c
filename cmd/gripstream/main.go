package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/anvith/gripstream/internal/pipeline"
	"github.com/anvith/gripstream/internal/recorder"
	"github.com/anvith/gripstream/internal/server"
	"github.com/anvith/gripstream/internal/store"
	"github.com/anvith/gripstream/internal/touch"
	"github.com/anvith/gripstream/internal/tray"
	"github.com/anvith/gripstream/internal/wall"
)

func main() {
	var (
		dbPath        = flag.String("db", "", "path to the sqlite database (default ~/.gripstream/gripstream.db)")
		wallSVG       = flag.String("wall", "", "path to the wall hold geometry SVG (required)")
		wallID        = flag.String("wall-id", "main", "wall identifier")
		upstream      = flag.String("upstream", "ws://localhost:8765/pose", "pose source WebSocket URL")
		downstream    = flag.String("downstream", "", "session update WebSocket URL")
		httpAddr      = flag.String("http", ":8080", "operator HTTP listen address")
		staticDir     = flag.String("static", "", "dashboard static file directory")
		threshold     = flag.Float64("touch-threshold", 0, "hold proximity threshold in wall units")
		duration      = flag.Duration("touch-duration", 0, "continuous proximity required for a touch")
		retrigger     = flag.Bool("retrigger", false, "re-fire touch events when a hold is touched again")
		recordCmd     = flag.String("record", "", "external recording command, run on start_recording")
		useTray       = flag.Bool("tray", false, "show the system tray controls")
		snapshotEvery = flag.Duration("snapshot-interval", 0, "periodic session snapshot interval")
	)
	flag.Parse()

	fmt.Println("GripStream - Interactive Climbing Wall")

	if *wallSVG == "" {
		log.Fatal("the -wall flag is required")
	}

	st, err := openStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	w, err := wall.LoadSVG(*wallID, *wallSVG, wall.DefaultSampleResolution)
	if err != nil {
		log.Fatalf("Failed to load wall geometry: %v", err)
	}
	log.Printf("Loaded wall %s with %d holds", w.ID, len(w.Holds))

	calib, err := st.Calibrations().Active(*wallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Fatalf("Wall %s has no active calibration; run the calibrate command first", *wallID)
		}
		log.Fatalf("Failed to load calibration: %v", err)
	}
	log.Printf("Using %s calibration %s (reprojection error %.3f)",
		calib.Method, calib.ID, calib.ReprojectionError)

	touchCfg := touch.DefaultConfig()
	if *threshold > 0 {
		touchCfg.ProximityThreshold = *threshold
	}
	if *duration > 0 {
		touchCfg.TouchDuration = *duration
	}
	if *retrigger {
		touchCfg.Mode = touch.ModeRetrigger
	}

	cfg := pipeline.Config{
		Wall:             w,
		Calibration:      calib,
		Touch:            touchCfg,
		UpstreamURL:      *upstream,
		DownstreamURL:    *downstream,
		SnapshotInterval: *snapshotEvery,
	}
	if *recordCmd != "" {
		cfg.Recorder = recorder.New(strings.Fields(*recordCmd))
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("Failed to assemble pipeline: %v", err)
	}
	p.Start()
	log.Printf("Session %s started", p.SessionID())

	srv := server.New(server.Config{
		StaticDir: *staticDir,
		Store:     st,
		Session:   p,
	})
	go func() {
		log.Printf("Operator server listening on %s", *httpAddr)
		if err := srv.ListenAndServe(*httpAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := func() {
		p.Stop()
		saveSession(st, w.ID, p)
	}

	if *useTray {
		runTray(p, *httpAddr, shutdown)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down")
	shutdown()
}

// openStore opens the sqlite store, defaulting to ~/.gripstream.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(homeDir, ".gripstream")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "gripstream.db")
	}
	return store.New(path)
}

// runTray blocks in the system tray loop with the pipeline controls
// wired to the menu.
func runTray(p *pipeline.Pipeline, httpAddr string, shutdown func()) {
	t := tray.New()
	t.OnToggle(p.SetEnabled)
	t.OnResetHolds(p.ResetHolds)
	t.OnDashboard(func() { openBrowser(dashboardURL(httpAddr)) })
	t.OnQuit(shutdown)

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			snap := p.Snapshot()
			completed := 0
			for _, h := range snap.Session.Holds {
				if h.Status == "completed" {
					completed++
				}
			}
			t.SetProgress(completed, len(snap.Session.Holds))
		}
	}()

	t.Run()
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// saveSession writes the finished session summary to the store.
func saveSession(st *store.Store, wallID string, p *pipeline.Pipeline) {
	snap := p.Snapshot()
	if snap.Session.StartTime == nil {
		return
	}

	completed := 0
	for _, h := range snap.Session.Holds {
		if h.Status == "completed" {
			completed++
		}
	}

	rec := store.SessionRecord{
		ID:             p.SessionID(),
		WallID:         wallID,
		StartedAt:      *snap.Session.StartTime,
		EndedAt:        snap.Session.EndTime,
		Status:         snap.Session.Status,
		HoldsTotal:     len(snap.Session.Holds),
		HoldsCompleted: completed,
	}
	if err := st.Sessions().Save(rec); err != nil {
		log.Printf("Failed to save session summary: %v", err)
	}
}
