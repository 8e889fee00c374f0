package scheduler

import "errors"

var (
	// ErrEmptyJobName is returned when a job is added without a name.
	ErrEmptyJobName = errors.New("empty job name")
	// ErrNilJob is returned when a job func is nil.
	ErrNilJob = errors.New("nil job")
	// ErrInvalidSchedule is returned when the cron spec cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
