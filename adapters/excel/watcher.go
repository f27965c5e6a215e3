package excel

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"vardrill/domain/drill"
	"vardrill/internal/metrics"
)

// ReloadFunc receives every successfully re-read dataset.
type ReloadFunc func(*drill.Dataset)

// Watcher re-reads the data file when it changes on disk. Editors often
// replace files with several events in a row, so reloads are debounced.
type Watcher struct {
	reader   *DataReader
	debounce time.Duration
	onReload ReloadFunc
}

// NewWatcher creates a watcher for reader's file.
func NewWatcher(reader *DataReader, onReload ReloadFunc) *Watcher {
	debounce := reader.cfg.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{reader: reader, debounce: debounce, onReload: onReload}
}

// Run blocks until ctx is cancelled. The parent directory is watched so
// rename-based saves are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	target, err := filepath.Abs(w.reader.Path())
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return err
	}
	log.Printf("[Watcher] watching %s", target)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watcher] watch error: %v", err)
		case <-timer.C:
			ds, err := w.reader.ReadDataset(ctx)
			if err != nil {
				log.Printf("[Watcher] reload failed, keeping previous dataset: %v", err)
				metrics.RecordReload(err)
				continue
			}
			log.Printf("[Watcher] reloaded %s (version %s)", target, ds.Version.Short())
			w.onReload(ds)
		}
	}
}
