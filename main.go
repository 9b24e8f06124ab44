package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()
	appliedTimeout := ConfigureExternalHTTPClient(cfg.HTTPTimeoutSeconds)
	log.Printf("Config loaded. QueueSheet=%s StatsSheet=%s Timezone=%s LookaheadDays=%d HTTPTimeout=%s",
		cfg.QueueSheetName, cfg.StatsSheetName, cfg.Timezone, cfg.LookaheadDays, appliedTimeout)

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	queueClient := NewSheetsClient(cfg.QueueSpreadsheetID, cfg.SheetsAccessToken)
	statsClient := NewSheetsClient(cfg.StatsSpreadsheetID, cfg.SheetsAccessToken)
	logStore := NewSheetLog(queueClient, cfg.QueueSheetName)
	statsCache := NewStatsCache(NewSheetStats(statsClient, cfg.StatsSheetName), db)
	forecaster := TrendForecaster{MinDays: cfg.MinForecastDays}

	var notifier Notifier = LogNotifier{}
	if cfg.SlackBotToken != "" && cfg.NotifyChannelID != "" {
		notifier = NewSlackNotifier(slack.New(cfg.SlackBotToken), cfg.NotifyChannelID)
	}

	// Sanity-check both stores before scheduling anything.
	records, _, err := logStore.Load()
	if err != nil {
		log.Fatalf("Failed to load queue log: %v", err)
	}
	state := Materialize(records)
	log.Printf("Queue log loaded: %d records, %d ids, %d active", len(records), state.Len(), len(state.ActiveQueue()))

	if snap, err := statsCache.Get(false); err != nil {
		log.Printf("Stats unavailable at startup (forecasts disabled until it recovers): %v", err)
	} else {
		log.Printf("Stats loaded: %d throughput days", snap.DistinctDays())
	}

	StartCompactionScheduler(cfg, logStore, notifier)
	StartReminderScheduler(cfg, logStore, statsCache, forecaster, notifier)

	log.Println("Queue forecast bot core running...")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("Shutting down")
}
