package serial

import (
	"path/filepath"
	"strings"

	"github.com/FerroO2000/filo/internal"
	"github.com/FerroO2000/filo/internal/config"
	"github.com/fsnotify/fsnotify"
)

//////////////
//  CONFIG  //
//////////////

// Default values for the device watcher configuration.
const (
	DefaultWatcherConfigDir       = "/dev"
	DefaultWatcherConfigQueueSize = 16
)

// DefaultWatcherConfigPrefixes is the default list of device name prefixes.
var DefaultWatcherConfigPrefixes = []string{"ttyUSB", "ttyACM"}

// WatcherConfig contains the configuration for the device watcher.
type WatcherConfig struct {
	// Dir is the directory holding the device nodes.
	Dir string

	// Prefixes is the list of device name prefixes to report.
	// An empty list reports every node in the directory.
	Prefixes []string

	// QueueSize is the capacity of the event channel.
	QueueSize int
}

// NewWatcherConfig returns a default WatcherConfig.
func NewWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		Dir:       DefaultWatcherConfigDir,
		Prefixes:  DefaultWatcherConfigPrefixes,
		QueueSize: DefaultWatcherConfigQueueSize,
	}
}

// Validate checks the configuration.
func (c *WatcherConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "Dir", &c.Dir, DefaultWatcherConfigDir)

	config.CheckNotNegative(ac, "QueueSize", &c.QueueSize, DefaultWatcherConfigQueueSize)
	config.CheckNotZero(ac, "QueueSize", &c.QueueSize, DefaultWatcherConfigQueueSize)
}

///////////////
//  WATCHER  //
///////////////

// DeviceEvent reports the appearance or removal of a device node.
type DeviceEvent struct {
	// Path is the device node path.
	Path string

	// Attached is true when the node appeared, false when it was removed.
	Attached bool
}

// Watcher reports serial device hotplug by watching a device directory
// for the creation and removal of matching nodes.
type Watcher struct {
	tel *internal.Telemetry

	watcher *fsnotify.Watcher

	prefixes []string
	events   chan DeviceEvent
}

// NewWatcher returns a running watcher for the given configuration.
func NewWatcher(cfg *WatcherConfig) (*Watcher, error) {
	tel := internal.NewTelemetry("serial", "watcher")

	configValidator := config.NewValidator(tel)
	configValidator.Validate(cfg)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(cfg.Dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		tel: tel,

		watcher: fsWatcher,

		prefixes: cfg.Prefixes,
		events:   make(chan DeviceEvent, cfg.QueueSize),
	}

	go w.run()

	return w, nil
}

// Events returns the channel delivering device events.
// It is closed when the watcher is closed.
func (w *Watcher) Events() <-chan DeviceEvent {
	return w.events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.events)

	for {
		select {
		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleFsEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.tel.LogError("watch error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(fsEvent fsnotify.Event) {
	if !w.matches(fsEvent.Name) {
		return
	}

	var devEvent DeviceEvent

	switch {
	case fsEvent.Has(fsnotify.Create):
		devEvent = DeviceEvent{Path: fsEvent.Name, Attached: true}

	case fsEvent.Has(fsnotify.Remove):
		devEvent = DeviceEvent{Path: fsEvent.Name, Attached: false}

	default:
		return
	}

	select {
	case w.events <- devEvent:
	default:
		w.tel.LogWarn("event queue full, dropping device event", "path", devEvent.Path)
	}
}

func (w *Watcher) matches(path string) bool {
	if len(w.prefixes) == 0 {
		return true
	}

	name := filepath.Base(path)
	for _, prefix := range w.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}
