package nlu

import (
	"fmt"
	"strings"

	"vocmd/internal/macro"
	"vocmd/internal/platform"
)

const (
	GoogleURL      = "https://www.google.com"
	ScanResultFile = "scan_result.txt"
)

// ScanBookSteps is the fixed scan_book sequence.
func ScanBookSteps() []macro.Action {
	return []macro.Action{
		macro.Terminal(),
		macro.Wait(1),
		macro.Speak("Please place the book on the scanner and press Enter."),
		macro.Wait(1),
		macro.Shell(fmt.Sprintf("echo Scanning book > %s", ScanResultFile)),
		macro.Open(ScanResultFile),
	}
}

// Generator builds the macro for a matched intent. It is pure: the same
// intent and text always give the same macro.
type Generator struct {
	ex   *Extractor
	goos string

	// confirmLiteralApps flags every open_app macro that runs the spoken
	// name verbatim as a shell command.
	confirmLiteralApps bool
}

func NewGenerator(ex *Extractor, goos string, confirmLiteralApps bool) *Generator {
	return &Generator{ex: ex, goos: goos, confirmLiteralApps: confirmLiteralApps}
}

// Generate returns nil when a parameter the intent needs is missing.
func (g *Generator) Generate(intent Intent, text string) *macro.Macro {
	switch intent {
	case IntentInstallPackage:
		req, ok := g.ex.ParseInstall(text)
		if !ok {
			return nil
		}
		return macro.New(
			macro.Shell(req.Installer.Command(req.Package)),
			macro.Speak(fmt.Sprintf("Installed %s (attempted with %s)", req.Package, req.Installer)),
		)

	case IntentOpenTerminal:
		return macro.New(macro.Terminal())

	case IntentOpenGoogle:
		return macro.New(macro.Open(GoogleURL))

	case IntentSearchWeb:
		req, ok := g.ex.ParseSearch(text)
		if !ok {
			return nil
		}
		return macro.New(macro.Search(req.Query))

	case IntentScanBook:
		return macro.New(ScanBookSteps()...)

	case IntentOpenApp:
		req, ok := g.ex.ParseApp(text)
		if !ok {
			return nil
		}
		return g.openApp(req)

	default:
		return nil
	}
}

func (g *Generator) openApp(req AppRequest) *macro.Macro {
	lower := strings.ToLower(req.Name)

	if g.ex.triggers.Mentions(lower, TokenBrowser) {
		return macro.New(macro.Shell(platform.BrowserCommand(g.goos)))
	}
	if strings.Contains(lower, "vscode") || lower == "code" {
		return macro.New(macro.Shell("code"))
	}

	m := macro.New(macro.Shell(req.Name))
	if g.confirmLiteralApps {
		m.RequiresConfirmation = true
	}
	return m
}
