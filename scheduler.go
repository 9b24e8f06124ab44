package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartCompactionScheduler runs log compaction on a cron schedule and posts
// the run summary to the notification channel. The schedule is a standard
// 5-field cron expression; empty disables the job.
func StartCompactionScheduler(cfg Config, store LogStore, notifier Notifier) {
	schedule := strings.TrimSpace(cfg.CompactionSchedule)
	if schedule == "" {
		log.Println("Compaction disabled (compaction_schedule not set)")
		return
	}

	sched, err := parseCronSchedule(schedule)
	if err != nil {
		log.Printf("Invalid compaction_schedule '%s': %v — compaction disabled", schedule, err)
		return
	}
	log.Printf("Compaction scheduled (cron: %s)", schedule)

	go runOnSchedule(sched, cfg.Location, "compaction", func() {
		res, err := RunCompaction(store, time.Now)
		if err != nil {
			if errors.Is(err, ErrLogChanged) {
				log.Printf("Compaction skipped: log changed during the run, will retry next cycle")
				return
			}
			log.Printf("Compaction error: %v", err)
			notifyQuietly(notifier, "Queue cleanup failed, will retry on the next schedule.")
			return
		}
		notifyQuietly(notifier, FormatCompactionSummary(res))
	})
}

// StartReminderScheduler posts, on its cron schedule, the list of active
// queue entries whose visit falls on the next working day, each annotated
// with its admission probability when throughput history is available.
func StartReminderScheduler(cfg Config, store LogStore, stats *StatsCache, fc Forecaster, notifier Notifier) {
	schedule := strings.TrimSpace(cfg.ReminderSchedule)
	if schedule == "" {
		log.Println("Visit reminders disabled (reminder_schedule not set)")
		return
	}

	sched, err := parseCronSchedule(schedule)
	if err != nil {
		log.Printf("Invalid reminder_schedule '%s': %v — reminders disabled", schedule, err)
		return
	}
	log.Printf("Visit reminders scheduled (cron: %s)", schedule)

	go runOnSchedule(sched, cfg.Location, "reminder", func() {
		records, _, err := store.Load()
		if err != nil {
			log.Printf("Reminder error: %v", err)
			return
		}
		state := Materialize(records)
		visitDay := NextWorkingDayAfter(time.Now())
		entries := state.ActiveQueueOn(visitDay)
		if len(entries) == 0 {
			log.Printf("Reminder: no visits on %s", visitDay.Format(dateLayout))
			return
		}

		var probs map[string]float64
		if snap, err := stats.Get(false); err != nil {
			log.Printf("Reminder: stats unavailable, sending without probabilities: %v", err)
		} else {
			ids := make([]string, len(entries))
			for i, rec := range entries {
				ids[i] = rec.ID
			}
			probs = DailyEntryProbabilities(ids, visitDay, snap, fc)
		}
		notifyQuietly(notifier, FormatVisitReminder(visitDay, entries, probs))
	})
}

func parseCronSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

func runOnSchedule(sched cron.Schedule, loc *time.Location, name string, job func()) {
	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next %s at %s (in %s)", name, next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		time.Sleep(wait)
		job()
	}
}

func notifyQuietly(notifier Notifier, message string) {
	if err := notifier.Notify(message); err != nil {
		log.Printf("Notification error: %v", err)
	}
}

// FormatVisitReminder renders the next-day visit list. probs carries optional
// per-ID admission probabilities; a nil map renders a plain list.
func FormatVisitReminder(visitDay time.Time, entries []QueueRecord, probs map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Visits scheduled for %s (%s):\n", visitDay.Format(dateLayout), visitDay.Format("Mon"))
	for i, rec := range entries {
		fmt.Fprintf(&b, "%d. ID %s", i+1, rec.ID)
		if rec.SubmitterDisplayName != "" {
			fmt.Fprintf(&b, " (%s)", rec.SubmitterDisplayName)
		}
		if p, ok := probs[rec.ID]; ok {
			fmt.Fprintf(&b, " [%.1f%%]", p)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d entries. Please confirm or reschedule in advance.", len(entries))
	return b.String()
}
