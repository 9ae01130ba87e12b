// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Watches the configuration file and dispatches reload hooks with the new
// configuration. Invalid edits are logged and ignored.

package control

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/spf13/viper"
	"github.com/ygrebnov/errorc"
)

// Watcher holds the current configuration of a file and reloads it.
type Watcher struct {
	path    string
	v       *viper.Viper
	log     *logiface.Logger[logiface.Event]
	current atomic.Pointer[Config]

	mu    sync.Mutex
	hooks []func(*Config)
	once  sync.Once

	// serializes Reload; v itself belongs to viper's watcher after Start
	reloadMu sync.Mutex
}

// NewWatcher loads path. Nothing is watched until Start.
func NewWatcher(path string, logger *logiface.Logger[logiface.Event]) (*Watcher, error) {
	if path == "" {
		return nil, errorc.With(api.ErrInvalidConfiguration, errorc.String("path", ""))
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errorc.With(api.ErrInvalidConfiguration,
			errorc.String("path", path),
			errorc.String("cause", err.Error()))
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, v: v, log: logger}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the last valid configuration.
func (w *Watcher) Current() *Config { return w.current.Load() }

// OnReload registers a hook called with every accepted configuration.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, fn)
}

// Start begins watching the file.
func (w *Watcher) Start() {
	w.once.Do(func() {
		w.v.OnConfigChange(func(e fsnotify.Event) {
			if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
				w.Reload()
			}
		})
		w.v.WatchConfig()
	})
}

// Reload re-reads the file. Hooks run synchronously, in registration order.
// Concurrent calls are serialized.
func (w *Watcher) Reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	v := newViper(w.path)
	if err := v.ReadInConfig(); err != nil {
		w.log.Warning().Str("path", w.path).Err(err).Log("config reload failed")
		return
	}
	cfg, err := decode(v)
	if err != nil {
		w.log.Warning().Str("path", w.path).Err(err).Log("config reload rejected")
		return
	}
	w.current.Store(cfg)
	w.log.Info().Str("path", w.path).Log("config reloaded")

	w.mu.Lock()
	hooks := slices.Clone(w.hooks)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
}
