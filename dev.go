package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ocho/vip"
)

// reloadDelay lets writes to the ROM file settle before it is read.
const reloadDelay = 100 * time.Millisecond

// romWatcher reloads a ROM into a running machine when its file changes.
type romWatcher struct {
	file string
	w    *fsnotify.Watcher
}

func watchROM(file string) (*romWatcher, error) {
	file = filepath.Clean(file)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, err
	}
	return &romWatcher{file: file, w: w}, nil
}

func (rw *romWatcher) Close() error { return rw.w.Close() }

// Run resets r with the new contents of the file each time it changes,
// until ctx is cancelled.
func (rw *romWatcher) Run(ctx context.Context, r *vip.Runner, logger *log.Logger) {
	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-rw.w.Event:
			if ev != nil && filepath.Clean(ev.Name) == rw.file && !ev.IsAttrib() {
				reload = time.After(reloadDelay)
			}
		case err := <-rw.w.Error:
			logger.Warn("Watching ROM failed", log.Err(err))
		case <-reload:
			reload = nil
			rom, err := readROM(rw.file)
			if err != nil {
				logger.Error("Reloading ROM failed", err)
				continue
			}
			if err := r.Reset(ctx, rom); err != nil {
				logger.Error("Resetting machine failed", err)
				continue
			}
			logger.Info("Reloaded ROM",
				log.String("file", rw.file),
				log.Int("size", len(rom)))
		}
	}
}
