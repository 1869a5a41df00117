package workspace

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/tutor-instructions.md
var templatesFS embed.FS

const vocabularyTemplate = `{
  "language": "%s",
  "words": []
}`

const grammarTemplate = `{
  "language": "%s",
  "rules": []
}`

const overridesTemplate = `{
  "language": "%s",
  "mode": "learning",
  "preferences": {
    "new_vocab_per_exchange": 2,
    "show_romanization": true
  },
  "notes": ""
}`

// Config is the dated per-language record written at bootstrap time.
type Config struct {
	Language     string `json:"language"`
	NativeScript string `json:"native_script"`
	Romanization string `json:"romanization"`
	Started      string `json:"started"`
}

// Bootstrap creates the workspace directory for a language and writes its
// five artifacts: the tutor instruction document, empty vocabulary and
// grammar stores, default preference overrides, and the dated config
// record. It fails with ErrAlreadyExists when the directory is present;
// the pre-existence check makes a retry after a partial failure safe to
// reason about.
func (r *Resolver) Bootstrap(language string) (Workspace, error) {
	ws, err := r.Resolve(language)
	if err != nil {
		return Workspace{}, err
	}
	if ws.Exists() {
		return Workspace{}, fmt.Errorf("language %q: %w", language, ErrAlreadyExists)
	}

	if err := os.MkdirAll(ws.Dir, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("creating workspace directory: %w", err)
	}

	meta := MetadataFor(language)

	instructions, err := renderInstructions(language, meta)
	if err != nil {
		return Workspace{}, err
	}

	cfg := Config{
		Language:     language,
		NativeScript: meta.NativeScript,
		Romanization: meta.Romanization,
		Started:      r.clock.Now().Format("2006-01-02"),
	}
	cfgJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return Workspace{}, fmt.Errorf("serializing config: %w", err)
	}

	artifacts := []struct {
		name    string
		content string
	}{
		{"CLAUDE.md", instructions},
		{"vocabulary.json", fmt.Sprintf(vocabularyTemplate, language)},
		{"grammar.json", fmt.Sprintf(grammarTemplate, language)},
		{"user-overrides.json", fmt.Sprintf(overridesTemplate, language)},
		{"config.json", string(cfgJSON)},
	}
	for _, a := range artifacts {
		path := filepath.Join(ws.Dir, a.name)
		if err := os.WriteFile(path, []byte(a.content), 0o644); err != nil {
			return Workspace{}, fmt.Errorf("writing %s: %w", a.name, err)
		}
	}

	return ws, nil
}

func renderInstructions(language string, meta Metadata) (string, error) {
	raw, err := templatesFS.ReadFile("templates/tutor-instructions.md")
	if err != nil {
		return "", fmt.Errorf("reading tutor template: %w", err)
	}
	doc := string(raw)
	doc = strings.ReplaceAll(doc, "{{LANGUAGE_NAME}}", language)
	doc = strings.ReplaceAll(doc, "{{LANGUAGE_NATIVE}}", meta.NativeScript)
	doc = strings.ReplaceAll(doc, "{{ROMANIZATION}}", meta.Romanization)
	doc = strings.ReplaceAll(doc, "{{LANGUAGE_SPECIFIC_NOTES}}", meta.Notes)
	return doc, nil
}
