package logging

import (
	"context"

	"go.uber.org/multierr"
)

// Writer delivers entries to a sink.
type Writer interface {
	WriteEntries(ctx context.Context, entries ...*Entry) error
}

type WriterFunc func(ctx context.Context, entries ...*Entry) error

func (f WriterFunc) WriteEntries(ctx context.Context, entries ...*Entry) error {
	return f(ctx, entries...)
}

type multiWriter []Writer

// MultiWriter fans entries out to every writer. A failing writer does not
// stop the others; all errors are combined.
func MultiWriter(writers ...Writer) Writer {
	return multiWriter(writers)
}

func (m multiWriter) WriteEntries(ctx context.Context, entries ...*Entry) error {
	var err error
	for _, w := range m {
		err = multierr.Append(err, w.WriteEntries(ctx, entries...))
	}
	return err
}

// Discard drops every entry.
var Discard Writer = WriterFunc(func(context.Context, ...*Entry) error { return nil })
