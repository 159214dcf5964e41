package runtime

import (
	"context"
	"errors"

	"github.com/yoshino-s/cloudlogging/logging"
)

// ErrSkipEntry tells the caller to drop the entry without reporting an error.
var ErrSkipEntry = errors.New("cloudlogging: entry skipped")

// Stage names the point at which hooks see an entry.
type Stage string

const (
	StageRequest Stage = "request"
	StageWrite   Stage = "write"
	StageCollect Stage = "collect"
)

// Hook may inspect or modify an entry. Returning an error drops it.
type Hook interface {
	Hook(ctx context.Context, stage Stage, entry *logging.Entry) error
}

type HookFunc func(ctx context.Context, stage Stage, entry *logging.Entry) error

func (f HookFunc) Hook(ctx context.Context, stage Stage, entry *logging.Entry) error {
	return f(ctx, stage, entry)
}

// LabelHook adds labels to every entry, keeping labels already set.
func LabelHook(labels map[string]string) Hook {
	return HookFunc(func(_ context.Context, _ Stage, entry *logging.Entry) error {
		if entry.Labels == nil {
			entry.Labels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			if _, ok := entry.Labels[k]; !ok {
				entry.Labels[k] = v
			}
		}
		return nil
	})
}

// MinSeverityHook skips entries below min.
func MinSeverityHook(min logging.Severity) Hook {
	return HookFunc(func(_ context.Context, _ Stage, entry *logging.Entry) error {
		if entry.Severity < min {
			return ErrSkipEntry
		}
		return nil
	})
}
