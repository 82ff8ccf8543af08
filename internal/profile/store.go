package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/go-core/log"
)

// Load reads and validates a profile file. Unknown YAML keys are rejected so
// a typoed preference surfaces at load time instead of silently doing
// nothing.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalid, path, err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Store holds the active profile and reloads it from disk on demand. The
// active profile is swapped atomically; callers get an immutable snapshot
// and never see a partially applied reload.
type Store struct {
	path   string
	cur    atomic.Pointer[Profile]
	logger log.Logger
}

// Open loads the profile at path and returns a Store serving it.
func Open(path string, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Nop()
	}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger}
	s.cur.Store(p)
	return s, nil
}

// Current returns the active profile snapshot. Callers must not mutate it.
func (s *Store) Current() *Profile {
	return s.cur.Load()
}

// Reload re-reads the profile file and swaps it in. On failure the previous
// profile stays active and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	p, err := Load(s.path)
	if err != nil {
		s.logger.Error(ctx, err, "profile reload failed, keeping active profile", "path", s.path)
		return err
	}
	s.cur.Store(p)
	s.logger.Info(ctx, "profile reloaded", "path", s.path, "email", p.Email)
	return nil
}

// Watch reloads the profile whenever its file changes, until ctx is done.
// Editors replace files rather than writing in place, so the watch is on the
// parent directory and filters for our path. A failed reload keeps the
// previous profile and the watch alive.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer func() { _ = w.Close() }()

		// Debounce: editors fire several events per save.
		var pending <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(250 * time.Millisecond)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn(ctx, "profile watch error", "error", err)
			case <-pending:
				pending = nil
				_ = s.Reload(ctx) // Reload logs its own failures
			}
		}
	}()

	s.logger.Info(ctx, "watching profile for changes", "path", s.path)
	return nil
}
