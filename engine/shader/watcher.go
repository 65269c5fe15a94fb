package shader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Carmen-Shannon/prism-go/engine/logger"
)

// Watcher observes shader source files on disk and reports which shader keys changed,
// so pipelines can be rebuilt with the new source.
type Watcher interface {
	// Watch registers a shader for change notifications. Inline shaders are ignored.
	//
	// Parameters:
	//   - s: the shader to watch
	//
	// Returns:
	//   - error: a filesystem watch error
	Watch(s Shader) error

	// Changed returns the channel that receives keys of shaders whose source files
	// were written since the last notification.
	//
	// Returns:
	//   - <-chan string: the changed shader keys
	Changed() <-chan string

	// Close stops watching and releases the underlying filesystem watcher.
	//
	// Returns:
	//   - error: a close error
	Close() error
}

type watcher struct {
	mu      *sync.Mutex
	fs      *fsnotify.Watcher
	byPath  map[string]Shader
	changed chan string
	done    chan struct{}
}

var _ Watcher = &watcher{}

// NewWatcher creates a shader source watcher backed by a filesystem notifier.
//
// Returns:
//   - Watcher: the constructed watcher
//   - error: a filesystem watcher setup error
func NewWatcher() (Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	w := &watcher{
		mu:      &sync.Mutex{},
		fs:      fs,
		byPath:  make(map[string]Shader),
		changed: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) Watch(s Shader) error {
	if s.URI() == "" {
		return nil
	}
	abs, err := filepath.Abs(s.URI())
	if err != nil {
		return fmt.Errorf("failed to resolve shader path %q: %w", s.URI(), err)
	}

	w.mu.Lock()
	w.byPath[abs] = s
	w.mu.Unlock()

	// Watch the directory rather than the file; editors that replace files on save
	// would otherwise drop the watch.
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch shader directory %q: %w", filepath.Dir(abs), err)
	}
	return nil
}

func (w *watcher) Changed() <-chan string {
	return w.changed
}

func (w *watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			s, watched := w.byPath[abs]
			w.mu.Unlock()
			if !watched {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.LogWarn("shader %q reload failed: %v", s.Key(), err)
				continue
			}
			select {
			case w.changed <- s.Key():
			default:
				logger.LogWarn("shader change notification dropped for %q", s.Key())
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.LogError("shader watcher error: %v", err)
		}
	}
}
