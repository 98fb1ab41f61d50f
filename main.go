package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/keyurgolani/BabyNest-sub008/api"
	"github.com/keyurgolani/BabyNest-sub008/config"
	"github.com/keyurgolani/BabyNest-sub008/deps"
)

var (
	version = "v0.0.0"
)

func main() {
	cfg := config.New(version)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("unable to validate config: %s", err)
	}

	d, err := deps.New(cfg)
	if err != nil {
		log.Fatalf("Could not setup dependencies: %s", err)
	}

	// Create API server
	a, err := api.New(cfg, d, version)
	if err != nil {
		log.Fatalf("unable to create API instance: %s", err)
	}

	// Run API server in a goroutine so that we can allow signal listener to
	// block the main thread so it can orchestrate graceful shutdown.
	go func() {
		if err := a.Run(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				// Graceful API server shutdown
				return
			}

			log.Fatalf("API server run() failed: %s", err)
		}
	}()

	// Block until we get a signal, then cancel the shared shutdown context and
	// wait for the publisher to drain its work channel.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Printf("Received signal '%s', starting graceful shutdown", sig)

	d.ShutdownCancel()

	select {
	case <-d.PublisherShutdownDoneCh:
		log.Println("Publisher shutdown complete")
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for publisher shutdown")
	}

	d.DBBackend.Close()

	log.Println("Shutdown complete")
}
