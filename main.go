package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/YassienTawfikk/SonoMetric/api"
	"github.com/YassienTawfikk/SonoMetric/internal/config"
	"github.com/YassienTawfikk/SonoMetric/internal/db"
	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "doppler.db", "Path to the sqlite database")
	configPath    = flag.String("config", "", "Optional parameter overrides file (JSON)")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations directory")
	autostart     = flag.Bool("autostart", false, "Begin acquisition at boot")
)

// loadParams builds the boot parameter set: defaults overlaid with the
// overrides file when one is configured or present at the default path.
func loadParams() (doppler.Params, error) {
	path := *configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}
	if path == "" {
		return doppler.DefaultParams().Normalize(), nil
	}

	tuning, err := config.LoadTuningConfig(path)
	if err != nil {
		return doppler.Params{}, err
	}
	log.Printf("loaded parameter overrides from %s", path)
	return tuning.Apply(doppler.DefaultParams())
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	params, err := loadParams()
	if err != nil {
		log.Fatalf("failed to load parameters: %v", err)
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Printf("migration warning: %v", err)
	}

	// Estimates flow from the simulation goroutine straight into the
	// database; an insert failure loses that estimate, not the run.
	engine, err := doppler.NewEngine(params,
		doppler.WithEstimateSink(func(sessionID string, est doppler.VelocityEstimate) {
			err := database.RecordEstimate(db.Estimate{
				SessionID:        sessionID,
				SimTime:          est.Time,
				Velocity:         est.Velocity,
				EnvelopeVelocity: est.EnvelopeVelocity,
				TheoreticalMax:   est.TheoreticalMax,
				AbsError:         est.AbsError,
				RelError:         est.RelError,
				NoSignal:         est.NoSignal,
			})
			if err != nil {
				log.Printf("failed to record estimate: %v", err)
			}
		}),
	)
	if err != nil {
		log.Fatalf("failed to build doppler engine: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *autostart {
		if err := engine.Start(); err != nil {
			log.Fatalf("failed to start acquisition: %v", err)
		}
		if paramsJSON, err := json.Marshal(engine.Params()); err == nil {
			if err := database.RecordSession(engine.SessionID(), string(paramsJSON)); err != nil {
				log.Printf("failed to record session: %v", err)
			}
		}
		log.Printf("acquisition autostarted: session=%s", engine.SessionID())
	}

	// stop the engine when the process is signalled
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		engine.Stop()
		log.Print("engine routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(engine, database, log.Default()).ServeMux()

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
