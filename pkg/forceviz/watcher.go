package forceviz

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// configWatcher calls onChange once a burst of writes to one file has
// settled.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	debounce time.Duration
	onChange func()
	onError  func(error)

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// newConfigWatcher starts watching filePath. The containing directory is
// watched so that editors replacing the file by rename are noticed.
func newConfigWatcher(filePath string, debounce time.Duration, onChange func(), onError func(error)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(filePath)); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	cw := &configWatcher{
		watcher:  w,
		filePath: filePath,
		debounce: debounce,
		onChange: onChange,
		onError:  onError,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

// Stop ends the watch and waits for the loop to exit. Safe to call more
// than once.
func (cw *configWatcher) Stop() {
	cw.stopOnce.Do(func() { close(cw.stopCh) })
	<-cw.doneCh
}

func (cw *configWatcher) matches(name string) bool {
	if filepath.Base(name) != filepath.Base(cw.filePath) {
		return false
	}
	a, errA := filepath.Abs(name)
	b, errB := filepath.Abs(cw.filePath)
	return errA != nil || errB != nil || a == b
}

func (cw *configWatcher) loop() {
	defer close(cw.doneCh)
	defer cw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-cw.stopCh:
			return

		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.matches(ev.Name) || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
			} else {
				timer.Reset(cw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cw.onChange()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			if cw.onError != nil {
				cw.onError(err)
			}
		}
	}
}
