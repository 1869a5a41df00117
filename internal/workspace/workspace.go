package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// ErrAlreadyExists is returned by Bootstrap when the language directory
// is already present.
var ErrAlreadyExists = errors.New("language already exists")

// ErrNotFound is returned by Delete and the read helpers when the
// language directory is absent.
var ErrNotFound = errors.New("language not found")

// ValidationError reports a rejected language identifier. It is a local,
// user-facing error; no filesystem state is touched when it is returned.
type ValidationError struct {
	Identifier string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid language %q: %s", e.Identifier, e.Reason)
}

// Workspace is one learner's per-language directory under the data root.
// Key is the lower-cased identifier used as the directory name; Language
// preserves the caller's original casing.
type Workspace struct {
	Language string
	Key      string
	Dir      string
}

// Exists reports whether the workspace directory has been bootstrapped.
func (w Workspace) Exists() bool {
	info, err := os.Stat(w.Dir)
	return err == nil && info.IsDir()
}

// TrackerDir is the subdirectory the tracker agent runs in so the agent
// CLI keeps a conversation thread separate from the responder's.
func (w Workspace) TrackerDir() string {
	return filepath.Join(w.Dir, ".tracker")
}

// VocabularyPath returns the path of the vocabulary store.
func (w Workspace) VocabularyPath() string {
	return filepath.Join(w.Dir, "vocabulary.json")
}

// GrammarPath returns the path of the grammar store.
func (w Workspace) GrammarPath() string {
	return filepath.Join(w.Dir, "grammar.json")
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Resolver maps language identifiers to isolated directories under a
// single data root. The root is injected explicitly; nothing in this
// package derives paths from the running executable.
type Resolver struct {
	dataRoot string
	clock    Clock
}

// NewResolver creates a Resolver rooted at dataRoot.
func NewResolver(dataRoot string) *Resolver {
	return &Resolver{dataRoot: dataRoot, clock: realClock{}}
}

// NewResolverWithClock creates a Resolver with a custom clock (for testing).
func NewResolverWithClock(dataRoot string, clock Clock) *Resolver {
	return &Resolver{dataRoot: dataRoot, clock: clock}
}

// DataRoot returns the directory all workspaces live under.
func (r *Resolver) DataRoot() string { return r.dataRoot }

// Resolve validates a language identifier and maps it to its workspace.
// The mapping is deterministic and case-insensitive: the directory name
// is the lower-cased identifier.
func (r *Resolver) Resolve(language string) (Workspace, error) {
	if err := validateIdentifier(language); err != nil {
		return Workspace{}, err
	}
	key := strings.ToLower(language)
	return Workspace{
		Language: language,
		Key:      key,
		Dir:      filepath.Join(r.dataRoot, key),
	}, nil
}

func validateIdentifier(language string) error {
	if language == "" {
		return &ValidationError{Identifier: language, Reason: "identifier is empty"}
	}
	if strings.Contains(language, "..") {
		return &ValidationError{Identifier: language, Reason: "identifier must not contain '..'"}
	}
	if strings.ContainsAny(language, `/\`) {
		return &ValidationError{Identifier: language, Reason: "identifier must not contain path separators"}
	}
	for _, r := range language {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			continue
		}
		return &ValidationError{
			Identifier: language,
			Reason:     fmt.Sprintf("character %q is not allowed; use letters, digits, spaces, and hyphens", r),
		}
	}
	return nil
}

// Delete removes the entire workspace subtree. It fails with ErrNotFound
// if the language was never bootstrapped. Destructive and irreversible;
// callers are expected to confirm with the user first.
func (r *Resolver) Delete(language string) error {
	ws, err := r.Resolve(language)
	if err != nil {
		return err
	}
	if !ws.Exists() {
		return fmt.Errorf("language %q: %w", language, ErrNotFound)
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		return fmt.Errorf("removing workspace %s: %w", ws.Dir, err)
	}
	return nil
}

// List returns the display names of all bootstrapped languages, sorted.
// A missing or empty data root yields an empty list, never an error.
func (r *Resolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.dataRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading data root %s: %w", r.dataRoot, err)
	}

	languages := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		languages = append(languages, displayName(entry.Name()))
	}
	sort.Strings(languages)
	return languages, nil
}

// displayName capitalizes the first rune of a directory name for listing.
func displayName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Vocabulary returns the raw JSON text of the vocabulary store.
func (r *Resolver) Vocabulary(language string) (string, error) {
	return r.readArtifact(language, "vocabulary.json")
}

// Grammar returns the raw JSON text of the grammar store.
func (r *Resolver) Grammar(language string) (string, error) {
	return r.readArtifact(language, "grammar.json")
}

func (r *Resolver) readArtifact(language, name string) (string, error) {
	ws, err := r.Resolve(language)
	if err != nil {
		return "", err
	}
	if !ws.Exists() {
		return "", fmt.Errorf("language %q: %w", language, ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(ws.Dir, name))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}
