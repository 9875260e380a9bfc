// Package truncate bounds tool output to line and byte caps, spilling the
// full content to disk so nothing is ever silently lost.
package truncate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default caps and retention.
const (
	DefaultMaxLines  = 2000
	DefaultMaxBytes  = 50 * 1024
	DefaultRetention = 7 * 24 * time.Hour
)

// spillPrefix prefixes every spill file name in the managed directory.
// The cleanup sweep only ever touches files carrying it.
const spillPrefix = "tool_"

// Direction selects which end of the content a preview keeps.
type Direction int

const (
	// Head keeps the beginning of the content.
	Head Direction = iota
	// Tail keeps the end of the content. Used when recent output, such as
	// the end of a build log, matters more than the start.
	Tail
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	if d == Tail {
		return "tail"
	}
	return "head"
}

// Result is the outcome of a truncation pass.
type Result struct {
	// Content is the bounded preview, including the omission marker and
	// delegate hint when truncated.
	Content string
	// Truncated reports whether any content was omitted from the preview.
	Truncated bool
	// SpillPath is the file holding the full original content. Empty when
	// not truncated, or when the spill write failed and the manager
	// degraded to a hard cut.
	SpillPath string
	// Hint, when non-empty, tells the agent to delegate full-content
	// inspection rather than re-read the whole spill file.
	Hint string
}

// Manager truncates text against line and byte caps and owns the spill
// directory. Writers only ever create uniquely named files, so a single
// manager is safe for any number of concurrent Truncate calls.
type Manager struct {
	dir       string
	maxLines  int
	maxBytes  int
	retention time.Duration
	logger    *zap.Logger

	ordinal atomic.Uint64
	sweepMu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxLines overrides the line cap.
func WithMaxLines(n int) Option {
	return func(m *Manager) { m.maxLines = n }
}

// WithMaxBytes overrides the byte cap.
func WithMaxBytes(n int) Option {
	return func(m *Manager) { m.maxBytes = n }
}

// WithRetention overrides the spill retention window.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a manager over the given spill directory, creating it
// if needed.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	m := &Manager{
		dir:       filepath.Clean(dir),
		maxLines:  DefaultMaxLines,
		maxBytes:  DefaultMaxBytes,
		retention: DefaultRetention,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spill directory: %w", err)
	}
	return m, nil
}

// Dir returns the managed spill directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Truncate bounds text to the manager's caps. Whichever cap is hit first
// determines the preview boundary. When truncation occurs the full original
// text is written once to a new spill file named from the session ID and a
// process-unique ordinal; if that write fails the result degrades to a hard
// in-memory cut with no spill path.
func (m *Manager) Truncate(text string, direction Direction, sessionID string) Result {
	lines := strings.Split(text, "\n")
	totalBytes := len(text)

	if len(lines) <= m.maxLines && totalBytes <= m.maxBytes {
		return Result{Content: text}
	}

	kept := make([]string, 0, m.maxLines)
	bytesCount := 0
	hitBytes := false

	if direction == Head {
		for i := 0; i < len(lines); i++ {
			if len(kept) >= m.maxLines {
				break
			}
			lineBytes := len(lines[i])
			if i > 0 {
				lineBytes++ // newline separator
			}
			if bytesCount+lineBytes > m.maxBytes {
				hitBytes = true
				break
			}
			kept = append(kept, lines[i])
			bytesCount += lineBytes
		}
	} else {
		for i := len(lines) - 1; i >= 0; i-- {
			if len(kept) >= m.maxLines {
				break
			}
			lineBytes := len(lines[i])
			if len(kept) > 0 {
				lineBytes++ // newline separator
			}
			if bytesCount+lineBytes > m.maxBytes {
				hitBytes = true
				break
			}
			kept = append([]string{lines[i]}, kept...)
			bytesCount += lineBytes
		}
	}

	removed := len(lines) - len(kept)
	unit := "lines"
	if hitBytes {
		removed = totalBytes - bytesCount
		unit = "bytes"
	}
	preview := strings.Join(kept, "\n")
	marker := fmt.Sprintf("...%d %s truncated...", removed, unit)

	spillPath, err := m.writeSpill(text, sessionID)
	if err != nil {
		// Disk trouble must not fail the tool call: degrade to a hard cut.
		m.logger.Warn("spill write failed, degrading to hard cut",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return Result{
			Content:   fmt.Sprintf("%s\n\n%s (full output could not be saved)", preview, marker),
			Truncated: true,
		}
	}

	hint := fmt.Sprintf(
		"Output was truncated. Full output saved to: %s. "+
			"Delegate inspection of that file to a search or offset-read workflow; "+
			"do not read the whole file back into the conversation.", spillPath)

	var content string
	if direction == Head {
		content = fmt.Sprintf("%s\n\n%s\n\n%s", preview, marker, hint)
	} else {
		content = fmt.Sprintf("%s\n\n%s\n\n%s", marker, hint, preview)
	}

	return Result{
		Content:   content,
		Truncated: true,
		SpillPath: spillPath,
		Hint:      hint,
	}
}

// writeSpill writes text to a new uniquely named spill file.
func (m *Manager) writeSpill(text, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = "anon"
	}
	name := fmt.Sprintf("%s%s_%06d_%s", spillPrefix, sessionID, m.ordinal.Add(1), uuid.NewString()[:8])
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
