// Package monitor re-runs the importer whenever one of its input files changes.
package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"ipamhosts/pkg/utils"
)

// Runner performs one import pass
type Runner interface {
	Run() (map[string]int, error)
}

// Monitor watches import files
type Monitor struct {
	runner   Runner
	files    []string
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a monitor for the given files. Empty paths are ignored.
func New(runner Runner, files ...string) *Monitor {
	m := &Monitor{
		runner:   runner,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		m.files = append(m.files, f)
	}
	return m
}

// Start runs an initial import and begins watching
func (m *Monitor) Start() error {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	m.runImport("startup")

	m.wg.Add(1)
	go m.watchFiles()

	for _, f := range m.files {
		m.addFileToWatcher(f)
	}
	return nil
}

// addFileToWatcher watches the directory of path so files replaced by
// rename are still seen
func (m *Monitor) addFileToWatcher(path string) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Cannot watch import file")
		return
	}
	if err := m.watcher.Add(dir); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to watch import file")
		return
	}
	log.Debug().Str("file", path).Msg("Watching import file")
}

func (m *Monitor) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, f := range m.files {
		if f == abs {
			return true
		}
	}
	return false
}

func (m *Monitor) watchFiles() {
	defer m.wg.Done()

	// pending collapses a burst of writes into one import
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !m.watched(event.Name) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Import file modified")
			pending = time.After(m.debounce)

		case <-pending:
			pending = nil
			m.runImport("file change")

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("File watcher error")

		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) runImport(reason string) {
	counts, err := m.runner.Run()
	if err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("Import failed")
		return
	}
	log.Info().Str("reason", reason).Interface("imported", counts).Msg("Import finished")
}

// Stop stops monitoring
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			utils.CheckWarn(m.watcher.Close(), "Failed to close file watcher")
		}
		m.wg.Wait()
	})
}
