// Package scheduler runs the background dispatch of call-later reminders
// through asynq.
package scheduler

import "github.com/hibiken/asynq"

// TypeCallLaterScan is the periodic task that looks for leads whose
// scheduled call date has arrived.
const TypeCallLaterScan = "leads:call_later_scan"

func NewCallLaterScanTask() *asynq.Task {
	return asynq.NewTask(TypeCallLaterScan, nil)
}
