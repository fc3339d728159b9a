// Package policy guards operations performed on behalf of the executor.
// Operation categories form a closed set, each with a declared default
// decision; a category the policy does not know is denied, so adding a new
// category forces an explicit choice instead of inheriting a silent allow.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Category is one kind of operation the executor may perform.
type Category string

const (
	CategoryExec    Category = "exec"
	CategoryWrite   Category = "write"
	CategoryNetwork Category = "network"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\s+(-[rRf]+\s+)?/`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`\bdd\s+if=`),
	regexp.MustCompile(`\bkill\s+-9\s+1\b`),
	regexp.MustCompile(`\bchmod\s+777\s+/`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]`),
	regexp.MustCompile(`\bsudo\s+rm\b`),
	regexp.MustCompile(`:\(\)\{ :\|:& \};:`),
	regexp.MustCompile(`\bshutdown\b`),
	regexp.MustCompile(`\breboot\b`),
}

var systemWritePrefixes = []string{
	"/etc/", "/usr/", "/System/", "/Library/", "/bin/", "/sbin/", "/var/",
}

var sensitiveFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.env$`),
	regexp.MustCompile(`(?i)credentials`),
	regexp.MustCompile(`\.pem$`),
	regexp.MustCompile(`\.key$`),
	regexp.MustCompile(`id_rsa`),
	regexp.MustCompile(`id_ed25519`),
	regexp.MustCompile(`\.ssh/config`),
}

// Policy maps operation categories to check functions. The zero value
// denies everything; use Default for the standard rule set.
type Policy struct {
	checks map[Category]func(input string) Decision
}

// Default returns the standard policy: exec is allowed unless the command
// matches a destructive pattern, write is allowed outside system paths and
// sensitive files, network is allowed.
func Default() *Policy {
	return &Policy{
		checks: map[Category]func(string) Decision{
			CategoryExec:    checkExec,
			CategoryWrite:   checkWrite,
			CategoryNetwork: func(string) Decision { return allow() },
		},
	}
}

// Check evaluates input against the rules for a category. Unknown
// categories are denied.
func (p *Policy) Check(cat Category, input string) Decision {
	check, ok := p.checks[cat]
	if !ok {
		return deny(fmt.Sprintf("unknown operation category %q", cat))
	}
	return check(input)
}

func checkExec(command string) Decision {
	for _, pat := range destructivePatterns {
		if pat.MatchString(command) {
			return deny(fmt.Sprintf("destructive command blocked: %s", pat.String()))
		}
	}
	return allow()
}

func checkWrite(path string) Decision {
	for _, prefix := range systemWritePrefixes {
		if strings.HasPrefix(path, prefix) {
			return deny(fmt.Sprintf("write to system path blocked: %s", prefix))
		}
	}
	for _, pat := range sensitiveFilePatterns {
		if pat.MatchString(path) {
			return deny(fmt.Sprintf("write to sensitive file blocked: %s", path))
		}
	}
	return allow()
}
