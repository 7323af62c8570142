package nlu

// Intent is one of the fixed macro categories text can be classified into.
type Intent string

const (
	IntentInstallPackage Intent = "install_package"
	IntentOpenTerminal   Intent = "open_terminal"
	IntentOpenGoogle     Intent = "open_google"
	IntentSearchWeb      Intent = "search_web"
	IntentScanBook       Intent = "scan_book"
	IntentOpenApp        Intent = "open_app"
)

// Template is the example phrase an utterance is compared against.
type Template struct {
	Name     Intent
	Template string
	Weight   float64
}

// Declaration order breaks similarity ties.
var intentTemplates = []Template{
	{Name: IntentInstallPackage, Template: "install PACKAGE", Weight: 1.0},
	{Name: IntentOpenTerminal, Template: "open terminal", Weight: 1.0},
	{Name: IntentOpenGoogle, Template: "open google", Weight: 1.0},
	{Name: IntentSearchWeb, Template: "search for QUERY", Weight: 1.0},
	{Name: IntentScanBook, Template: "scan book", Weight: 1.0},
	{Name: IntentOpenApp, Template: "open app NAME", Weight: 1.0},
}

func Templates() []Template {
	return append([]Template(nil), intentTemplates...)
}

func templatePhrases() []string {
	out := make([]string, len(intentTemplates))
	for i, t := range intentTemplates {
		out[i] = t.Template
	}
	return out
}
