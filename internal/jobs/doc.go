// Package jobs implements background processing for the quest board.
//
// Jobs run independently of request handling, started from main and stopped
// during shutdown:
//
//	reminder := jobs.NewSummaryReminder(questRepo, notifier, 6*time.Hour)
//	reminder.Start()
//	defer reminder.Stop()
//
// Jobs log failures and keep running; a broken scan never crashes the
// process.
package jobs
