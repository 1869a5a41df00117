// Package transcript reconstructs chat history from the agent CLI's own
// conversation logs. The log format is append-only JSONL owned by the
// external tool; this is a best-effort read path, never a source of truth.
package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Turn is one user or assistant exchange unit, in log order.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reader locates and parses the newest conversation log for a workspace.
type Reader struct {
	projectsRoot string
}

// NewReader creates a Reader over the agent CLI's default project-log
// root (~/.claude/projects).
func NewReader() (*Reader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return &Reader{projectsRoot: filepath.Join(home, ".claude", "projects")}, nil
}

// NewReaderWithRoot creates a Reader over an explicit project-log root
// (used by tests).
func NewReaderWithRoot(root string) *Reader {
	return &Reader{projectsRoot: root}
}

// ProjectDirName encodes a workspace directory path the way the agent CLI
// names its per-project log directories: the Windows long-path prefix is
// stripped, the volume-root separator becomes "--", and every remaining
// path separator becomes "-".
func ProjectDirName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path for %s: %w", dir, err)
	}
	return encodePath(abs), nil
}

func encodePath(p string) string {
	p = strings.TrimPrefix(p, `\\?\`)
	p = strings.ReplaceAll(p, `:\`, "--")
	p = strings.ReplaceAll(p, ":/", "--")
	p = strings.ReplaceAll(p, `\`, "-")
	p = strings.ReplaceAll(p, "/", "-")
	return p
}

// ReadLatest returns the turns of the most recently modified conversation
// log for the workspace at dir. A workspace that has never chatted has no
// log directory yet; that case returns an empty slice, not an error.
func (r *Reader) ReadLatest(dir string) ([]Turn, error) {
	name, err := ProjectDirName(dir)
	if err != nil {
		return nil, err
	}
	projectDir := filepath.Join(r.projectsRoot, name)

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("reading project log dir %s: %w", projectDir, err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var logs []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logs = append(logs, candidate{
			path:    filepath.Join(projectDir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}
	if len(logs) == 0 {
		return []Turn{}, nil
	}

	// Most recent first; stable so equal timestamps keep directory order.
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].modTime > logs[j].modTime
	})

	return parseLog(logs[0].path)
}

// maxLineSize bounds a single log line. Assistant records carry whole tool
// outputs, so lines can be large.
const maxLineSize = 4 << 20

func parseLog(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening conversation log %s: %w", path, err)
	}
	defer f.Close()

	turns := []Turn{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if turn, ok := extractTurn(scanner.Bytes()); ok {
			turns = append(turns, turn)
		}
	}
	if err := scanner.Err(); err != nil {
		// An oversize line degrades history like any other corruption:
		// keep the turns gathered before it instead of aborting the read.
		if errors.Is(err, bufio.ErrTooLong) {
			return turns, nil
		}
		return nil, fmt.Errorf("scanning conversation log %s: %w", path, err)
	}
	return turns, nil
}

// logRecord is the subset of a log line this reader cares about. Lines
// that do not parse are skipped: partial writes and corruption degrade
// history completeness, never abort the read.
type logRecord struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentItem struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// extractTurn classifies one log record into at most one Turn.
func extractTurn(line []byte) (Turn, bool) {
	var rec logRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Turn{}, false
	}

	switch {
	case rec.Type == "user" && rec.Message.Role == "user":
		// A user turn must be plain text. Structured content is tool
		// plumbing (tool results), not learner speech.
		var text string
		if err := json.Unmarshal(rec.Message.Content, &text); err != nil {
			return Turn{}, false
		}
		return Turn{Role: "user", Content: text}, true

	case rec.Type == "assistant" && rec.Message.Role == "assistant":
		var items []contentItem
		if err := json.Unmarshal(rec.Message.Content, &items); err != nil {
			return Turn{}, false
		}
		// Only the first text block counts; later ones are ignored.
		for _, item := range items {
			if item.Type == "text" && item.Text != nil {
				return Turn{Role: "assistant", Content: *item.Text}, true
			}
		}
	}
	return Turn{}, false
}
