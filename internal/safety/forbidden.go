package safety

import "regexp"

// Rule flags a shell command that can destroy data or escalate privileges.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
	Reason  string
}

func rule(id, pattern, reason string) Rule {
	return Rule{
		ID:      id,
		Pattern: regexp.MustCompile(`(?i)` + pattern),
		Reason:  reason,
	}
}

var forbiddenRules = []Rule{
	rule("recursive-force-delete", `rm\s+-rf`, "recursive force delete"),
	rule("stream-truncate", `:\s*>`, "truncates a file through redirect"),
	rule("raw-block-write", `\bdd\s+`, "raw block device write"),
	rule("mkfs", `mkfs`, "creates a filesystem"),
	rule("shutdown", `shutdown\s+-h`, "halts the machine"),
	rule("reboot", `reboot`, "reboots the machine"),
	rule("passwd", `passwd`, "modifies the password database"),
	rule("world-writable", `chmod\s+777`, "grants world-writable permissions"),
	rule("chown", `chown\s+`, "changes file ownership"),
	rule("apt-get-remove", `apt-get\s+remove`, "removes system packages"),
	rule("apt-remove", `apt\s+remove`, "removes system packages"),
	rule("pip-uninstall", `pip\s+uninstall`, "removes python packages"),
	rule("npm-uninstall", `npm\s+uninstall`, "removes node packages"),
	rule("sudo", `sudo\s+-?i?`, "runs with elevated privileges"),
}

// Rules returns the forbidden rule table in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), forbiddenRules...)
}

// IsForbidden reports whether command matches any forbidden pattern.
// The result is advisory: callers must ask before running the command.
func IsForbidden(command string) bool {
	for _, r := range forbiddenRules {
		if r.Pattern.MatchString(command) {
			return true
		}
	}
	return false
}

// Check returns every rule command matches.
func Check(command string) []Rule {
	var hits []Rule
	for _, r := range forbiddenRules {
		if r.Pattern.MatchString(command) {
			hits = append(hits, r)
		}
	}
	return hits
}

// Reasons is Check flattened to human readable reasons.
func Reasons(command string) []string {
	hits := Check(command)
	out := make([]string, 0, len(hits))
	for _, r := range hits {
		out = append(out, r.Reason)
	}
	return out
}
