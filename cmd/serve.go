/*
Package cmd
File: serve.go
Description: Server entry point. Initializes the world, the simulation
engine, the real-time WebSocket hub, the frame loop that keeps the economy
alive, and the cron jobs for autosave and the UI time heartbeat.
*/

package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/everforgeworks/tradewinds-server/internal/api"
	"github.com/everforgeworks/tradewinds-server/internal/save"
	"github.com/everforgeworks/tradewinds-server/internal/sim"
	"github.com/everforgeworks/tradewinds-server/internal/world"
)

var (
	listenAddr string
	saveFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8081", "HTTP listen address")
	serveCmd.Flags().StringVarP(&saveFile, "save", "s", "tradewinds-save.json", "Autosave file path (empty disables autosave)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load the static world configuration from YAML.
	cfg, err := world.Load(configFile)
	if err != nil {
		return err
	}
	log.Printf("World loaded: %d locations, %d items, %d event types", len(cfg.Locations), len(cfg.Items), len(cfg.EventTypes))

	// 2. Initialize and start the real-time WebSocket hub.
	hub := api.NewHub()
	go hub.Run()

	// 3. Build the engine with the hub as its notification sink.
	engine := sim.NewEngine(cfg, time.Now().UnixNano(), sim.WithNotify(hub.Notify))

	// 4. Resume the previous session if an autosave exists.
	if saveFile != "" {
		if snap, err := save.ReadFile(saveFile); err == nil {
			engine.Restore(snap)
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Autosave unreadable, starting fresh: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. THE FRAME LOOP — the server-side stand-in for the browser's
	// animation-frame callback.
	go sim.NewLoop(engine).Run(ctx)

	// 6. Cron jobs: periodic autosave, plus a time heartbeat so connected
	// UIs stay in sync without polling.
	jobs := cron.New()
	if saveFile != "" {
		jobs.AddFunc("@every 2m", func() {
			if err := save.WriteFile(saveFile, engine.Snapshot()); err != nil {
				log.Printf("Autosave failed: %v", err)
			}
		})
	}
	jobs.AddFunc("@every 10s", func() {
		hub.Notify(sim.Notice{Type: "time_changed", Payload: engine.TimeInfo()})
	})
	jobs.Start()
	defer jobs.Stop()

	// 7. Start the HTTP server.
	server := &http.Server{
		Addr:    listenAddr,
		Handler: api.NewServer(engine, hub).Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("TRADEWINDS server live on %s", listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	// 8. Final save on the way out.
	if saveFile != "" {
		if err := save.WriteFile(saveFile, engine.Snapshot()); err != nil {
			log.Printf("Final save failed: %v", err)
		}
	}
	log.Println("Server stopped")
	return nil
}
