package config

import (
	"path/filepath"

	"github.com/bz888/codeagent/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file whenever it changes on disk.
type Watcher struct {
	path        string
	fs          *fsnotify.Watcher
	onChange    func(Settings)
	done        chan struct{}
	localLogger *logger.Logger
}

// WatchSettings watches the directory holding path, so that editors which
// replace the file on save are still observed. onChange runs on the
// watcher goroutine with every successfully parsed version.
func WatchSettings(path string, onChange func(Settings)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:        filepath.Clean(path),
		fs:          fw,
		onChange:    onChange,
		done:        make(chan struct{}),
		localLogger: logger.NewLogger("settings"),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			settings, err := LoadSettings(w.path)
			if err != nil {
				w.localLogger.Warn("ignoring unreadable settings:", err)
				continue
			}
			w.onChange(settings)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.localLogger.Error("settings watcher:", err)
		}
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
