package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"
)

// debounce is how long watch waits for a burst of events to settle.
const debounce = 50 * time.Millisecond

// watch calls rebuild once and then after every write to filename until
// ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temporary file over the original are noticed.
// Events arriving within debounce of each other cause a single rebuild.
func watch(ctx context.Context, filename string, rebuild func()) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "watch", "file", filename)
	defer tr.Finish("err", &err)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}
	defer w.Close()

	target := filepath.Clean(filename)

	if err = w.Add(filepath.Dir(target)); err != nil {
		return errors.Wrap(err, "watch %v", filepath.Dir(target))
	}

	rebuild()

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			if tlog.If("watch") {
				tr.Printw("changed", "op", ev.Op.String())
			}

			pending = time.After(debounce)
		case <-pending:
			pending = nil

			rebuild()
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}

			return errors.Wrap(werr, "watcher")
		}
	}
}
