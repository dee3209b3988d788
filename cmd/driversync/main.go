package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ecopickup/driversync/internal/backend"
	"github.com/ecopickup/driversync/internal/credential"
	"github.com/ecopickup/driversync/internal/history"
	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/session"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	setToken := flag.String("set-token", "", "store the backend API token in the system keyring and exit")
	flag.Parse()

	if *setToken != "" {
		if err := credential.Set(credential.BackendTokenKey, *setToken); err != nil {
			log.Fatalf("storing token: %v", err)
		}
		log.Println("backend token stored")
		return
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Backend.BaseURL == "" || cfg.Backend.DriverID == "" {
		log.Fatalf("config %s must set backend.base_url and backend.driver_id", *configPath)
	}

	token, err := credential.Token()
	if err != nil {
		log.Fatalf("resolving backend token: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.History.DBPath), 0o755); err != nil {
		log.Fatalf("creating history directory: %v", err)
	}
	journal, err := history.Open(cfg.History.DBPath)
	if err != nil {
		log.Fatalf("opening history db: %v", err)
	}
	defer journal.Close()

	client := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Company.DeadlineHours)
	feed := backend.NewFeed(cfg.Backend.BaseURL, token)

	sess := session.New(cfg, client, feed, journal)
	sess.Start()
	defer sess.Stop()

	go logUpdates(sess)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down")
}

func logUpdates(sess *session.Session) {
	for u := range sess.Updates() {
		switch {
		case u.Err != nil && u.Initial:
			log.Printf("initial load failed: %v", u.Err)
		case u.Err != nil:
			// Background failures stay quiet; the next trigger retries.
		case u.Initial:
			log.Printf("loaded %d tasks", u.TaskCount)
		default:
			log.Printf("refreshed: %d tasks", u.TaskCount)
		}
	}
}
