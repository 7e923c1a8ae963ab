package ui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settleDelay lets editors finish atomic writes before the file is read again.
const settleDelay = 100 * time.Millisecond

// Watch watches the directory holding path so that atomic saves (write to temp, rename) are seen too.
// The caller closes the returned watcher.
func Watch(path string) (*fsnotify.Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return watcher, nil
}

// waitForFileChange returns a command that waits for the next write to path.
func waitForFileChange(watcher *fsnotify.Watcher, path string, logger *log.Logger) tea.Cmd {
	target, _ := filepath.Abs(path)

	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return closedMsg()
				}
				name, _ := filepath.Abs(event.Name)
				if name != target || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				time.Sleep(settleDelay)
				return fileChangedMsg(path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return closedMsg()
				}
				logger.Warn("file watcher error", "error", err)
			}
		}
	}
}
