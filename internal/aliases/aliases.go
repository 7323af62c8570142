// Package aliases stores user-defined phrase to command mappings layered
// over a small built-in set.
package aliases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/sahilm/fuzzy"

	"vocmd/internal/macro"
	"vocmd/internal/platform"
)

var ErrNotFound = errors.New("alias not found")

// IntentAlias marks macros built from an alias.
const IntentAlias = "alias"

// minFuzzyRunes is the shortest utterance tried against fuzzy matching.
const minFuzzyRunes = 3

// Defaults are the built-in aliases for goos. home is the user's home folder.
func Defaults(goos, home string) map[string]string {
	return map[string]string{
		"باز کن کروم":      platform.OpenCommand(goos, "https://www.google.com"),
		"باز کن یوتیوب":    platform.OpenCommand(goos, "https://youtube.com"),
		"باز کن تلگرام":    platform.OpenCommand(goos, "https://web.telegram.org"),
		"پوشه دانلودها":    platform.OpenCommand(goos, filepath.Join(home, "Downloads")),
		"باز کن فایل خانه": platform.OpenCommand(goos, home),
		"باز کن ترمینال":   platform.TerminalCommand(goos),
	}
}

// Match is the result of a lookup.
type Match struct {
	Phrase  string
	Command string
	Exact   bool
}

// Macro wraps the aliased command in a single shell step.
func (m Match) Macro() *macro.Macro {
	mm := macro.New(macro.Shell(m.Command))
	mm.Intent = IntentAlias
	return mm
}

// Store is safe for concurrent use.
type Store struct {
	path     string
	defaults map[string]string

	mu     sync.RWMutex
	custom map[string]string
}

// NewStore keeps custom aliases in the JSON file at path. Call Load to read it.
func NewStore(path string, defaults map[string]string) *Store {
	if defaults == nil {
		home, _ := os.UserHomeDir()
		defaults = Defaults(platform.Current(), home)
	}
	return &Store{
		path:     path,
		defaults: defaults,
		custom:   map[string]string{},
	}
}

func (s *Store) Path() string { return s.path }

// Load reads the custom aliases. A missing file is created empty; an
// unreadable or corrupt one leaves only the defaults.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.replace(map[string]string{})
		return s.Save()
	}
	if err != nil {
		log.Warn("Failed to read aliases, using defaults", "path", s.path, "err", err)
		s.replace(map[string]string{})
		return nil
	}

	custom := map[string]string{}
	if err := json.Unmarshal(data, &custom); err != nil {
		log.Warn("Corrupt alias file, using defaults", "path", s.path, "err", err)
		s.replace(map[string]string{})
		return nil
	}

	s.replace(custom)
	log.Debug("Loaded aliases", "path", s.path, "custom", len(custom))
	return nil
}

func (s *Store) replace(custom map[string]string) {
	s.mu.Lock()
	s.custom = custom
	s.mu.Unlock()
}

// All returns the defaults overlaid with the custom aliases.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.defaults)+len(s.custom))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range s.custom {
		out[k] = v
	}
	return out
}

// Custom returns only the user-defined aliases.
func (s *Store) Custom() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.custom))
	for k, v := range s.custom {
		out[k] = v
	}
	return out
}

// Set adds or replaces a custom alias. It does not persist; call Save.
func (s *Store) Set(phrase, command string) error {
	phrase = strings.TrimSpace(phrase)
	command = strings.TrimSpace(command)
	if phrase == "" || command == "" {
		return errors.New("alias phrase and command must not be empty")
	}

	s.mu.Lock()
	s.custom[phrase] = command
	s.mu.Unlock()
	return nil
}

// Remove deletes a custom alias. Built-in aliases cannot be removed.
func (s *Store) Remove(phrase string) error {
	phrase = strings.TrimSpace(phrase)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.custom[phrase]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, phrase)
	}
	delete(s.custom, phrase)
	return nil
}

// Save writes the custom aliases to the store file.
func (s *Store) Save() error {
	s.mu.RLock()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(s.custom)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create alias dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".aliases-*.json")
	if err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("save aliases: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}
	return nil
}

// Lookup finds the alias for text: an exact phrase match ignoring case and
// spacing first, then the closest phrase containing the characters of text
// in order.
func (s *Store) Lookup(text string) (Match, error) {
	query := normalize(text)
	if query == "" {
		return Match{}, ErrNotFound
	}

	all := s.All()
	phrases := make([]string, 0, len(all))
	for p := range all {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)

	normalized := make([]string, len(phrases))
	for i, p := range phrases {
		normalized[i] = normalize(p)
		if normalized[i] == query {
			return Match{Phrase: p, Command: all[p], Exact: true}, nil
		}
	}

	qlen := utf8.RuneCountInString(query)
	if qlen < minFuzzyRunes {
		return Match{}, fmt.Errorf("%w: %q", ErrNotFound, text)
	}

	for _, m := range fuzzy.Find(query, normalized) {
		// the utterance must cover at least half of the phrase
		if qlen*2 < utf8.RuneCountInString(m.Str) {
			continue
		}
		p := phrases[m.Index]
		return Match{Phrase: p, Command: all[p]}, nil
	}

	return Match{}, fmt.Errorf("%w: %q", ErrNotFound, text)
}

// Watch reloads the store whenever its file changes, until ctx is done.
// onReload, if set, runs after each reload.
func (s *Store) Watch(ctx context.Context, onReload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// the directory, since Save replaces the file by rename
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := s.Load(); err != nil {
					log.Warn("Failed to reload aliases", "err", err)
					continue
				}
				log.Info("Reloaded aliases", "path", s.path)
				if onReload != nil {
					onReload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Alias watcher error", "err", err)
			}
		}
	}()

	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
