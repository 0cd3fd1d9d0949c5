// Package settings persists the user-editable preferences of the tool.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultPrompt is the generation prompt used until the user saves their own.
const DefaultPrompt = `You are an elite web designer. Build a unique, professional landing page for the business.

Technical requirements:
- A single complete HTML5 file with CSS in a <style> tag inside <head>
- Responsive layout using CSS Grid and Flexbox, no external libraries
- SEO meta tags

Structure: hero with name, tagline and call to action; about; services or products; testimonials; gallery; contact; footer; floating WhatsApp button.

Return only the HTML, without explanations or markdown. Write all copy in Spanish.`

// Settings are the user preferences.
type Settings struct {
	SystemPrompt string `yaml:"system_prompt" json:"systemPrompt"`
}

// Default returns the settings used when nothing has been saved.
func Default() Settings {
	return Settings{SystemPrompt: DefaultPrompt}
}

// Prompt returns the saved prompt, or DefaultPrompt when it is blank.
func (s Settings) Prompt() string {
	if strings.TrimSpace(s.SystemPrompt) == "" {
		return DefaultPrompt
	}
	return s.SystemPrompt
}

// Load reads settings from path. A missing file yields Default.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, eris.Wrapf(err, "settings: read %s", path)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, eris.Wrapf(err, "settings: parse %s", path)
	}
	s.SystemPrompt = s.Prompt()
	return s, nil
}

// Save writes s to path, replacing the previous file atomically.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "settings: marshal")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "settings: create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return eris.Wrap(err, "settings: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "settings: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "settings: close temp file")
	}
	return eris.Wrapf(os.Rename(tmp.Name(), path), "settings: replace %s", path)
}

// File serializes access to a settings file shared by concurrent requests.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File backed by path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Get loads the current settings.
func (f *File) Get() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Load(f.path)
}

// Update applies fn to the current settings and saves the result.
func (f *File) Update(fn func(*Settings)) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := Load(f.path)
	if err != nil {
		return Settings{}, err
	}
	fn(&s)
	if err := Save(f.path, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
