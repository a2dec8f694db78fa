package services

import (
	"context"
	"log"
	"time"

	"splitpot/backend/database"
)

// StartScheduler starts the daily background jobs. They stop when ctx is done.
func StartScheduler(ctx context.Context) {
	log.Println("Starting task scheduler...")
	go runDaily(ctx, func() {
		log.Println("Running scheduled upstream sync...")
		SyncAllProjects(ctx)
		LogAllWarnings(time.Now())
	})
}

// runDaily calls job every night at midnight
func runDaily(ctx context.Context, job func()) {
	for {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		log.Printf("Next scheduled run in %v", midnight.Sub(now))

		timer := time.NewTimer(midnight.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Task scheduler stopped")
			return
		case <-timer.C:
			job()
		}
	}
}

// LogAllWarnings logs every pool warning crossing across all projects
func LogAllWarnings(today time.Time) {
	rows, err := database.DB.Query(`SELECT id FROM projects ORDER BY id`)
	if err != nil {
		log.Printf("Error listing projects for warnings: %v", err)
		return
	}
	var projectIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Printf("Error scanning project id: %v", err)
			continue
		}
		projectIDs = append(projectIDs, id)
	}
	rows.Close()

	for _, projectID := range projectIDs {
		warnings, err := ProjectWarnings(projectID, today)
		if err != nil {
			log.Printf("Error computing warnings for project %s: %v", projectID, err)
			continue
		}
		for _, w := range warnings {
			who := "pool"
			if w.ParticipantID != nil {
				who = "participant " + *w.ParticipantID
			}
			log.Printf("Warning: project %s pool %s (%s) drops to %.2f below expected %.2f on %s",
				projectID, w.PoolID, who, w.Balance, w.ExpectedMinimum, w.Date)
		}
	}
}
