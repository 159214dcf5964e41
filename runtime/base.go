package runtime

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"github.com/yoshino-s/cloudlogging/logging"
)

type HookSet struct {
	Hooks []Hook
}

func NewHookSet(hooks ...Hook) *HookSet {
	return &HookSet{
		Hooks: append([]Hook{}, hooks...),
	}
}

func (s *HookSet) AddHook(hook Hook) {
	s.Hooks = append(s.Hooks, hook)
}

// RunHooks runs the hooks in order and stops at the first error.
func (s *HookSet) RunHooks(ctx context.Context, stage Stage, entry *logging.Entry) error {
	if s == nil {
		return nil
	}
	for _, hook := range s.Hooks {
		if err := hook.Hook(ctx, stage, entry); err != nil {
			return err
		}
	}
	return nil
}

type hookedWriter struct {
	next  logging.Writer
	hooks *HookSet
	stage Stage
}

// HookedWriter runs hooks on every entry before passing the survivors to
// next. Entries skipped with ErrSkipEntry are dropped silently; other hook
// errors drop the entry and are returned alongside the write error.
func HookedWriter(next logging.Writer, hooks *HookSet, stage Stage) logging.Writer {
	return &hookedWriter{next: next, hooks: hooks, stage: stage}
}

func (w *hookedWriter) WriteEntries(ctx context.Context, entries ...*logging.Entry) error {
	var errs error
	kept := make([]*logging.Entry, 0, len(entries))
	for _, e := range entries {
		err := w.hooks.RunHooks(ctx, w.stage, e)
		switch {
		case err == nil:
			kept = append(kept, e)
		case !errors.Is(err, ErrSkipEntry):
			errs = multierr.Append(errs, err)
		}
	}
	if len(kept) > 0 {
		errs = multierr.Append(errs, w.next.WriteEntries(ctx, kept...))
	}
	return errs
}
