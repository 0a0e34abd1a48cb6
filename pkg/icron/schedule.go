package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerInfo struct {
	Expression string
	Next       time.Time
	// Interval is the gap between the next two runs.
	Interval      time.Duration
	TimeUntilNext time.Duration
}

// GetTriggerInfo parses a standard 5-field expression (descriptors such as
// @daily are accepted) and describes its next run after refTime.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	next := schedule.Next(refTime)
	after := schedule.Next(next)

	return &TriggerInfo{
		Expression:    cronExpr,
		Next:          next,
		Interval:      after.Sub(next),
		TimeUntilNext: next.Sub(refTime),
	}, nil
}
