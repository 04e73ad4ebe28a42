// Package normalize canonicalizes free text (artist, title, file name) so
// that tags written by different rippers and stores compare equal.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/pkg/utils"
)

var (
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	featRe    = regexp.MustCompile(`(?i)\b(?:feat|ft)\b\.?`)
	symbolRe  = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

type step func(string) string

// pipeline runs in order on lower-cased, trimmed text. The underscore
// rewrite has to happen before the feat step: \b counts '_' as a word
// character but symbolRe later turns it into a space.
var pipeline = []step{
	func(s string) string { return strings.ReplaceAll(s, "_", " ") },
	func(s string) string { return parenRe.ReplaceAllString(s, "") },
	func(s string) string { return bracketRe.ReplaceAllString(s, "") },
	func(s string) string { return featRe.ReplaceAllString(s, "") },
	func(s string) string { return strings.ReplaceAll(s, "&", "and") },
	func(s string) string { return symbolRe.ReplaceAllString(s, " ") },
	collapse,
}

// Text returns the comparison form of s: lower case, no bracketed
// annotations, no featured-artist markers, '&' spelled out, punctuation
// turned into single spaces. It never fails; if a step blows up the
// simpler fallback is used instead.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = strings.TrimSpace(strings.ToLower(s))

	out, ok := run(s)
	if !ok {
		return fallback(s)
	}
	return out
}

func run(s string) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			tlog.Tlogger.Warnf("Normalizing %q failed, using fallback: %v", s, r)
			out, ok = "", false
		}
	}()

	for _, fn := range pipeline {
		s = fn(s)
	}
	return s, true
}

// fallback keeps letters, digits and whitespace and nothing else.
func fallback(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if utils.IsAlphanumeric(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
