/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rental marketplace engine server: storage,
  token ledger, engine, HTTP router, graceful shutdown.

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: rental.db, ":memory:" works)
  -config  Optional JSON marketplace config (admin, fee, seed balances);
           without it the engine starts with the default fee and an
           "admin" identity holding nothing.

EXAMPLES:
  ./server -db=./data/rental.db -config=./marketplace.json
  ./server -db=:memory: -port=3000

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain for up to 30s,
  close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - factory/config.go: Marketplace config format
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dev-Oud/RentalDapp/api"
	"github.com/Dev-Oud/RentalDapp/factory"
	"github.com/Dev-Oud/RentalDapp/rental"
	"github.com/Dev-Oud/RentalDapp/store/sqlite"
	"github.com/Dev-Oud/RentalDapp/token"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "rental.db", "SQLite database path")
	configPath := flag.String("config", "", "JSON marketplace config (optional)")
	flag.Parse()

	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	var (
		engine   *rental.Engine
		ledger   *token.Ledger
		decimals = rental.DefaultDecimals
	)
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}
		cfg, err := factory.Parse(data)
		if err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		engine, ledger, err = cfg.Build(context.Background(), st)
		if err != nil {
			log.Fatalf("Failed to build engine: %v", err)
		}
		decimals = cfg.Decimals
	} else {
		ledger = token.NewLedger()
		engine = rental.New(st, ledger, rental.Identity("admin"))
	}

	handler := api.NewHandler(engine, ledger, decimals)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
