package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultIdleTimeout = 5 * time.Second

type FollowOptions struct {
	// IdleTimeout ends the stream when the file has not grown for this long.
	// Zero follows until the file is removed or the source is closed.
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// Follower reads a file that is still being written, like tail -f. It
// reports io.EOF once the file goes idle or is removed or renamed.
type Follower struct {
	file    *os.File
	watcher *fsnotify.Watcher
	name    string
	idle    time.Duration
	logger  *slog.Logger

	gone      bool
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func Follow(path string, opts FollowOptions) (*Follower, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open followed file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// watch the directory so removal and rename are seen too
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	logger.Debug("following file", "path", path, "idle_timeout", opts.IdleTimeout)
	return &Follower{
		file:    file,
		watcher: watcher,
		name:    filepath.Clean(path),
		idle:    opts.IdleTimeout,
		logger:  logger.With("component", "follow"),
		closed:  make(chan struct{}),
	}, nil
}

func (f *Follower) Read(p []byte) (int, error) {
	var idle <-chan time.Time
	if f.idle > 0 {
		timer := time.NewTimer(f.idle)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		n, err := f.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			select {
			case <-f.closed:
				return 0, os.ErrClosed
			default:
			}
			return 0, err
		}
		if f.gone {
			return 0, io.EOF
		}

		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return 0, os.ErrClosed
			}
			if filepath.Clean(ev.Name) != f.name {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				f.logger.Debug("followed file went away", "op", ev.Op.String())
				// drain what was written before the file went away
				f.gone = true
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return 0, os.ErrClosed
			}
			return 0, fmt.Errorf("watch followed file: %w", err)

		case <-idle:
			f.logger.Debug("followed file idle", "timeout", f.idle)
			return 0, io.EOF

		case <-f.closed:
			return 0, os.ErrClosed
		}
	}
}

func (f *Follower) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		f.closeErr = errors.Join(f.watcher.Close(), f.file.Close())
	})
	return f.closeErr
}
