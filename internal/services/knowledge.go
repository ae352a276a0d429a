package services

import (
	"context"
	"fmt"
	"strings"
)

// Outcome is how an external lookup ended
type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// MaxAmbiguousOptions is how many options an ambiguous answer lists
const MaxAmbiguousOptions = 5

// KnowledgeSource answers a phrase an answer memory does not know.
// Lookup never fails with a Go error; failures are a Result outcome.
type KnowledgeSource interface {
	Lookup(ctx context.Context, query string) Result
}

// Result of a lookup
type Result struct {
	Outcome Outcome
	Summary string
	Options []string
	Err     string
}

// Messages are the user visible texts for outcomes other than found.
// Ambiguous and Failed take one %s.
type Messages struct {
	Ambiguous string `yaml:"ambiguous"`
	NotFound  string `yaml:"not_found"`
	Failed    string `yaml:"failed"`
}

// DefaultMessages returns the Portuguese messages the bot has always used
func DefaultMessages() Messages {
	return Messages{
		Ambiguous: "A pergunta é ambígua. Exemplos: %s",
		NotFound:  "Não encontrei nada sobre isso na Wikipédia.",
		Failed:    "Ocorreu um erro: %s",
	}
}

func Found(summary string) Result { return Result{Outcome: OutcomeFound, Summary: summary} }

func Ambiguous(options []string) Result { return Result{Outcome: OutcomeAmbiguous, Options: options} }

func NotFound() Result { return Result{Outcome: OutcomeNotFound} }

func Failed(err error) Result { return Result{Outcome: OutcomeFailed, Err: err.Error()} }

// Text renders the answer shown to the user
func (r Result) Text(m Messages) string {
	switch r.Outcome {
	case OutcomeFound:
		return r.Summary
	case OutcomeAmbiguous:
		options := r.Options
		if len(options) > MaxAmbiguousOptions {
			options = options[:MaxAmbiguousOptions]
		}
		return fmt.Sprintf(m.Ambiguous, FormatList(options))
	case OutcomeNotFound:
		return m.NotFound
	default:
		return fmt.Sprintf(m.Failed, r.Err)
	}
}

// FormatList renders items like a printed Python list of strings:
// ['a', "it's", 'c']
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
	b.WriteByte(']')
	return b.String()
}

// quote picks single quotes unless the text has a single quote and no
// double quote, escaping whatever else needs it.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
