package nlu

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Token is the canonical meaning of a trigger phrase.
type Token string

const (
	TokenInstall Token = "install"
	TokenSearch  Token = "search"
	TokenOpen    Token = "open"
	TokenBrowser Token = "browser"
	TokenGoogle  Token = "google"
	TokenScan    Token = "scan"
)

var knownTokens = map[Token]bool{
	TokenInstall: true,
	TokenSearch:  true,
	TokenOpen:    true,
	TokenBrowser: true,
	TokenGoogle:  true,
	TokenScan:    true,
}

const (
	LangEnglish = "en"
	LangPersian = "fa"
)

// Trigger maps a phrase in some language to a canonical token.
type Trigger struct {
	Phrase string `yaml:"phrase"`
	Lang   string `yaml:"lang"`
	Token  Token  `yaml:"token"`
}

var defaultTriggers = []Trigger{
	{Phrase: "install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "pip install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "apt install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "apt-get install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "brew install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "npm install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "choco install", Lang: LangEnglish, Token: TokenInstall},
	{Phrase: "نصب", Lang: LangPersian, Token: TokenInstall},

	{Phrase: "search for", Lang: LangEnglish, Token: TokenSearch},
	{Phrase: "search", Lang: LangEnglish, Token: TokenSearch},
	{Phrase: "جستجو کن برای", Lang: LangPersian, Token: TokenSearch},
	{Phrase: "جستجو برای", Lang: LangPersian, Token: TokenSearch},
	{Phrase: "جستجو", Lang: LangPersian, Token: TokenSearch},

	{Phrase: "open", Lang: LangEnglish, Token: TokenOpen},
	{Phrase: "launch", Lang: LangEnglish, Token: TokenOpen},
	{Phrase: "باز کن", Lang: LangPersian, Token: TokenOpen},

	{Phrase: "chrome", Lang: LangEnglish, Token: TokenBrowser},
	{Phrase: "google", Lang: LangEnglish, Token: TokenBrowser},
	{Phrase: "کروم", Lang: LangPersian, Token: TokenBrowser},

	{Phrase: "google", Lang: LangEnglish, Token: TokenGoogle},
	{Phrase: "گوگل", Lang: LangPersian, Token: TokenGoogle},

	{Phrase: "scan", Lang: LangEnglish, Token: TokenScan},
	{Phrase: "اسکن", Lang: LangPersian, Token: TokenScan},
}

// DefaultTriggerTable returns the built-in English and Persian phrases.
func DefaultTriggerTable() []Trigger {
	return append([]Trigger(nil), defaultTriggers...)
}

// Triggers is a compiled trigger table.
type Triggers struct {
	table     []Trigger
	secondary string

	install          *regexp.Regexp
	installSecondary *regexp.Regexp
	search           *regexp.Regexp
	open             *regexp.Regexp
}

// NewTriggers compiles table. Install phrases of the secondary language also
// match package names outside the ASCII identifier set.
func NewTriggers(table []Trigger, secondary string) (*Triggers, error) {
	for i, tr := range table {
		if strings.TrimSpace(tr.Phrase) == "" {
			return nil, fmt.Errorf("trigger %d: empty phrase", i)
		}
		if !knownTokens[tr.Token] {
			return nil, fmt.Errorf("trigger %d (%q): unknown token %q", i, tr.Phrase, tr.Token)
		}
	}

	t := &Triggers{
		table:     append([]Trigger(nil), table...),
		secondary: secondary,
	}

	var err error
	if t.install, err = t.compile(TokenInstall, nil, `\s+([A-Za-z0-9_.\-]+)`); err != nil {
		return nil, err
	}
	if t.search, err = t.compile(TokenSearch, nil, `\s+(.+)$`); err != nil {
		return nil, err
	}
	if t.open, err = t.compile(TokenOpen, nil, `\s+(.+)`); err != nil {
		return nil, err
	}
	if secondary != "" {
		if t.installSecondary, err = t.compile(TokenInstall, []string{secondary}, `\s+([^\s،]+)`); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// DefaultTriggers compiles the built-in table with Persian as the secondary language.
func DefaultTriggers() *Triggers {
	t, err := NewTriggers(defaultTriggers, LangPersian)
	if err != nil {
		panic(err)
	}
	return t
}

type triggerFile struct {
	Triggers []Trigger `yaml:"triggers"`
}

// LoadTriggers compiles the built-in table extended with the phrases in the
// YAML file at path.
func LoadTriggers(path, secondary string) (*Triggers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trigger file: %w", err)
	}

	var f triggerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing trigger file: %w", err)
	}

	return NewTriggers(append(DefaultTriggerTable(), f.Triggers...), secondary)
}

func (t *Triggers) Table() []Trigger {
	return append([]Trigger(nil), t.table...)
}

func (t *Triggers) Secondary() string { return t.secondary }

// Phrases lists the phrases for tok, restricted to langs when given.
func (t *Triggers) Phrases(tok Token, langs ...string) []string {
	var out []string
	for _, tr := range t.table {
		if tr.Token != tok {
			continue
		}
		if len(langs) > 0 && !contains(langs, tr.Lang) {
			continue
		}
		out = append(out, tr.Phrase)
	}
	return out
}

// Mentions reports whether text contains any phrase of tok, ignoring case.
func (t *Triggers) Mentions(text string, tok Token) bool {
	lower := strings.ToLower(text)
	for _, p := range t.Phrases(tok) {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func (t *Triggers) compile(tok Token, langs []string, tail string) (*regexp.Regexp, error) {
	phrases := t.Phrases(tok, langs...)
	if len(phrases) == 0 {
		return nil, nil
	}

	// longest first so "search for" wins over "search"
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i]) > len(phrases[j])
	})

	alts := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(p)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alt := strings.Join(words, `\s+`)
		if seen[alt] {
			continue
		}
		seen[alt] = true
		alts = append(alts, alt)
	}

	re, err := regexp.Compile(`(?i)(?:` + strings.Join(alts, "|") + `)` + tail)
	if err != nil {
		return nil, fmt.Errorf("compile %s triggers: %w", tok, err)
	}
	return re, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
