package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type OperationType string

const (
	OpWrite     OperationType = "write"
	OpDelete    OperationType = "delete"
	OpCreateDir OperationType = "create_dir"
	OpRemoveDir OperationType = "remove_dir"
	OpCopy      OperationType = "copy"
)

type OperationLog struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Type       OperationType `json:"type"`
	Path       string        `json:"path"`
	SourcePath string        `json:"source_path,omitempty"`
	DryRun     bool          `json:"dry_run,omitempty"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

type SessionMetadata struct {
	CommandArgs   []string  `json:"command_args"`
	WorkingDir    string    `json:"working_dir"`
	Timestamp     time.Time `json:"timestamp"`
	EndTime       time.Time `json:"end_time"`
	SessionID     string    `json:"session_id"`
	DryRun        bool      `json:"dry_run"`
	Accounts      []string  `json:"accounts,omitempty"`
	TotalOps      int       `json:"total_operations"`
	SuccessfulOps int       `json:"successful_operations"`
	FailedOps     int       `json:"failed_operations"`
}

type Session struct {
	Metadata   SessionMetadata `json:"metadata"`
	Operations []OperationLog  `json:"operations"`
}

// Journal records every filesystem mutation of one run and writes them to a
// JSON file when the run ends. A nil *Journal discards everything.
type Journal struct {
	mu      sync.Mutex
	dir     string
	dryRun  bool
	session *Session
}

// NewJournal returns a journal writing into dir, or nil when disabled.
func NewJournal(dir string, enabled bool) *Journal {
	if !enabled || dir == "" {
		return nil
	}
	return &Journal{dir: dir}
}

// Dir returns the directory sessions are written to.
func (j *Journal) Dir() string {
	if j == nil {
		return ""
	}
	return j.dir
}

// Start begins a new session, discarding any unfinished one.
func (j *Journal) Start(command string, args []string, dryRun bool) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	wd, _ := os.Getwd()
	j.dryRun = dryRun
	j.session = &Session{
		Metadata: SessionMetadata{
			CommandArgs: append([]string{command}, args...),
			WorkingDir:  wd,
			Timestamp:   time.Now(),
			SessionID:   uuid.NewString(),
			DryRun:      dryRun,
		},
		Operations: []OperationLog{},
	}
}

// AddAccount notes an account processed in this session.
func (j *Journal) AddAccount(name string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.session != nil {
		j.session.Metadata.Accounts = append(j.session.Metadata.Accounts, name)
	}
}

// Record appends one operation to the current session.
func (j *Journal) Record(opType OperationType, path, sourcePath string, err error) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.session == nil {
		return
	}

	op := OperationLog{
		ID:         fmt.Sprintf("%s_%d", j.session.Metadata.SessionID, len(j.session.Operations)),
		Timestamp:  time.Now(),
		Type:       opType,
		Path:       path,
		SourcePath: sourcePath,
		DryRun:     j.dryRun,
		Success:    err == nil,
	}
	if err != nil {
		op.Error = err.Error()
	}
	j.session.Operations = append(j.session.Operations, op)
}

// Snapshot returns a copy of the current session's statistics.
func (j *Journal) Snapshot() SessionMetadata {
	if j == nil {
		return SessionMetadata{}
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.session == nil {
		return SessionMetadata{}
	}
	updateStats(j.session)
	return j.session.Metadata
}

// End writes the session to disk and returns the file path. Sessions with no
// operations are not written.
func (j *Journal) End() (string, error) {
	if j == nil {
		return "", nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	session := j.session
	j.session = nil
	if session == nil || len(session.Operations) == 0 {
		return "", nil
	}
	session.Metadata.EndTime = time.Now()
	updateStats(session)
	return WriteSession(j.dir, session)
}

// updateStats updates the session statistics
func updateStats(session *Session) {
	successful := 0
	for _, op := range session.Operations {
		if op.Success {
			successful++
		}
	}
	session.Metadata.TotalOps = len(session.Operations)
	session.Metadata.SuccessfulOps = successful
	session.Metadata.FailedOps = len(session.Operations) - successful
}

// Cleanup removes session files older than retentionDays.
func (j *Journal) Cleanup(retentionDays int) (int, error) {
	if j == nil || retentionDays <= 0 {
		return 0, nil
	}
	return cleanupOldSessions(j.dir, retentionDays)
}

func sessionPath(dir string, now time.Time) string {
	filename := fmt.Sprintf("%s.%03d.json",
		now.Format("2006-01-02_150405"),
		now.Nanosecond()/1000000)
	return filepath.Join(dir, filename)
}

// WriteSession saves session as indented JSON in dir.
func WriteSession(dir string, session *Session) (string, error) {
	if session == nil {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	path := sessionPath(dir, session.Metadata.Timestamp)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write journal file: %w", err)
	}
	return path, nil
}

func ReadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// ReadSessions returns up to limit sessions from dir, newest first. Corrupt
// files are skipped.
func ReadSessions(dir string, limit int) ([]*Session, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*Session{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list journal files: %w", err)
	}

	// Names start with a timestamp
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	sessions := make([]*Session, 0, len(files))
	for _, file := range files {
		session, err := ReadSession(file)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func cleanupOldSessions(dir string, retentionDays int) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list journal files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
