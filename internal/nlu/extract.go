package nlu

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"vocmd/internal/platform"
)

// Installer is a package manager family.
type Installer string

const (
	InstallerPip   Installer = "pip"
	InstallerNpm   Installer = "npm"
	InstallerBrew  Installer = "brew"
	InstallerChoco Installer = "choco"
	InstallerApt   Installer = "apt"
)

// DefaultInstaller is the system package manager for goos.
func DefaultInstaller(goos string) Installer {
	switch goos {
	case platform.Windows:
		return InstallerChoco
	case platform.Darwin:
		return InstallerBrew
	default:
		return InstallerApt
	}
}

// Command is the shell command that installs pkg.
func (i Installer) Command(pkg string) string {
	switch i {
	case InstallerPip:
		return fmt.Sprintf("pip install %s", pkg)
	case InstallerNpm:
		return fmt.Sprintf("npm install -g %s", pkg)
	case InstallerBrew:
		return fmt.Sprintf("brew install %s", pkg)
	case InstallerChoco:
		return fmt.Sprintf("choco install %s -y", pkg)
	default:
		return fmt.Sprintf("sudo apt-get update && sudo apt-get install -y %s", pkg)
	}
}

// Manager names recognised in the utterance, in precedence order.
var managerHints = []struct {
	installer Installer
	words     []string
}{
	{installer: InstallerPip, words: []string{"pip"}},
	{installer: InstallerNpm, words: []string{"npm", "node"}},
	{installer: InstallerBrew, words: []string{"brew"}},
	{installer: InstallerChoco, words: []string{"choco"}},
}

var pythonStyleName = regexp.MustCompile(`^[a-z0-9._-]*[a-z][a-z0-9._-]*$`)

type InstallRequest struct {
	Package   string
	Installer Installer
}

type SearchRequest struct {
	Query string
}

type AppRequest struct {
	Name string
}

// Extractor pulls typed parameters out of an utterance.
type Extractor struct {
	triggers *Triggers
	goos     string
}

func NewExtractor(triggers *Triggers, goos string) *Extractor {
	if triggers == nil {
		triggers = DefaultTriggers()
	}
	return &Extractor{triggers: triggers, goos: goos}
}

// ParseInstall finds "<install verb> <package>". The installer is the manager
// named in the text, else pip for python-style names, else the OS default.
// A secondary-language verb with a non-ASCII name always uses the OS default.
func (e *Extractor) ParseInstall(text string) (InstallRequest, bool) {
	if m := e.triggers.install.FindStringSubmatchIndex(text); m != nil {
		pkg := text[m[2]:m[3]]
		rest := text[:m[2]] + " " + text[m[3]:]
		return InstallRequest{
			Package:   pkg,
			Installer: e.chooseInstaller(rest, pkg),
		}, true
	}

	if e.triggers.installSecondary != nil {
		if m := e.triggers.installSecondary.FindStringSubmatch(text); m != nil {
			return InstallRequest{
				Package:   m[1],
				Installer: DefaultInstaller(e.goos),
			}, true
		}
	}

	return InstallRequest{}, false
}

// chooseInstaller looks for manager names as whole words in rest, the
// utterance with the package name cut out.
func (e *Extractor) chooseInstaller(rest, pkg string) Installer {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(rest), notWordRune) {
		words[w] = true
	}
	for _, h := range managerHints {
		for _, w := range h.words {
			if words[w] {
				return h.installer
			}
		}
	}

	if strings.HasSuffix(pkg, ".py") || pythonStyleName.MatchString(pkg) {
		return InstallerPip
	}

	return DefaultInstaller(e.goos)
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// ParseSearch returns the text following a search phrase.
func (e *Extractor) ParseSearch(text string) (SearchRequest, bool) {
	m := e.triggers.search.FindStringSubmatch(text)
	if m == nil {
		return SearchRequest{}, false
	}

	q := strings.TrimSpace(m[1])
	if q == "" {
		return SearchRequest{}, false
	}
	return SearchRequest{Query: q}, true
}

// ParseApp returns the app name following an open/launch phrase.
// A leading "app" word, as in "open app spotify", is dropped.
func (e *Extractor) ParseApp(text string) (AppRequest, bool) {
	m := e.triggers.open.FindStringSubmatch(text)
	if m == nil {
		return AppRequest{}, false
	}

	name := strings.TrimSpace(m[1])
	if fields := strings.Fields(name); len(fields) > 1 && strings.EqualFold(fields[0], "app") {
		name = strings.TrimSpace(name[len(fields[0]):])
	}
	if name == "" {
		return AppRequest{}, false
	}
	return AppRequest{Name: name}, true
}
