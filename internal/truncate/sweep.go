package truncate

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupOnce deletes spill files whose modification time is older than the
// retention window, scanned once per call. Sweeps serialize against each
// other but never against writers: writers only create new files, and a
// freshly written file always has a recent mtime. Returns the number of
// files removed.
func (m *Manager) CleanupOnce(now time.Time) (int, error) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-m.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), spillPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // raced with a concurrent delete
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove expired spill file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("spill sweep complete",
			zap.Int("removed", removed),
			zap.Duration("retention", m.retention))
	}
	return removed, nil
}

// RemoveSession deletes all spill files belonging to a session, for explicit
// session teardown ahead of the age-based sweep.
func (m *Manager) RemoveSession(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}
	prefix := spillPrefix + sessionID + "_"
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Janitor periodically runs the cleanup sweep on a cron schedule.
type Janitor struct {
	cron *cron.Cron
}

// NewJanitor schedules mgr.CleanupOnce on the given cron spec
// (e.g. "@hourly"). The schedule does not run until Start.
func NewJanitor(mgr *Manager, spec string) (*Janitor, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := mgr.CleanupOnce(time.Now()); err != nil {
			mgr.logger.Warn("spill sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return &Janitor{cron: c}, nil
}

// Start begins running the sweep on schedule.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
