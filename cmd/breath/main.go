// Command breath runs the CSI breathing analysis server: it accepts
// capture uploads, estimates breathing rates, stores results, and
// optionally mirrors raw captures to IPFS.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/breath.report/internal/api"
	"github.com/banshee-data/breath.report/internal/archive"
	"github.com/banshee-data/breath.report/internal/baseline"
	"github.com/banshee-data/breath.report/internal/config"
	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/db"
	"github.com/banshee-data/breath.report/internal/hintmux"
)

var (
	devMode     = flag.Bool("dev", false, "Run in dev mode (no serial hint source)")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "breath.db", "Path to the results database")
	baselineDir = flag.String("baseline-dir", "baselines", "Directory holding baseline profiles")
	configPath  = flag.String("config", "", "Path to an analysis config JSON (optional)")
	keysPath    = flag.String("keys", "", "Path to a device API key JSON map (optional)")
	ipfsAPI     = flag.String("ipfs", "", "IPFS node API endpoint for capture archival (optional)")
	hintPort    = flag.String("hint-port", "", "Serial port carrying subcarrier hints (optional)")
)

func main() {
	flag.Parse()

	// 'breath migrate up|down|status|force' manages the schema and exits
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbPath)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load analysis config: %v", err)
		}
	}

	keys, err := api.LoadAPIKeys(*keysPath)
	if err != nil {
		log.Fatalf("Failed to load API keys: %v", err)
	}
	if !keys.Enabled() {
		log.Printf("No API keys configured; requests will not be authenticated")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	baselines := baseline.NewStore(*baselineDir)

	pipeline := csi.NewPipeline(
		csi.WithBaselines(baselines),
		csi.WithTuning(cfg.Tuning()),
		csi.WithTopSubcarriers(cfg.GetTopSubcarriers()),
	)

	var mirror *archive.Mirror
	if *ipfsAPI != "" {
		mirror = archive.NewMirror(*ipfsAPI)
		log.Printf("Mirroring captures to IPFS node at %s", *ipfsAPI)
	}

	var hints *hintmux.HintMux
	if *hintPort != "" && !*devMode {
		hints, err = hintmux.Open(*hintPort)
		if err != nil {
			log.Fatalf("Failed to open hint port %s: %v", *hintPort, err)
		}
		defer hints.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// watch the serial port for subcarrier hints
	if hints != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hints.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("hint monitor failed: %v", err)
			}
			log.Print("hint monitor routine terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		var hintSource api.HintSource
		if hints != nil {
			hintSource = hints
		}
		var archiver api.Archiver
		if mirror != nil {
			archiver = mirror
		}

		mux := api.NewServer(database, pipeline, baselines, archiver, hintSource, keys).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("Listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
