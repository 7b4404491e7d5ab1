package format

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

const (
	DefaultQuoteNumberTemplate = "DEV-{YYYY}-{SEQ3}"

	// MaxRandomSequence bounds the sequence drawn by NewQuoteNumber.
	MaxRandomSequence = 999
)

// FormatQuoteNumber renders a quote number from a template, the quote
// creation time and a sequence.
//
// Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} {SEQn}.
func FormatQuoteNumber(
	template string,
	createdAt time.Time,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("quote number template is empty")
	}

	if seq < 0 {
		return "", fmt.Errorf("invalid quote sequence: %d", seq)
	}

	out := template

	out = strings.ReplaceAll(out, "{YYYY}", createdAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", createdAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", createdAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", createdAt.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in quote number format: %s", out)
	}

	return out, nil
}

// SequenceFunc draws the sequence part of a new quote number.
type SequenceFunc func() int64

// RandomSequence draws uniformly from 0..MaxRandomSequence. Numbers are not
// checked for uniqueness.
func RandomSequence() int64 {
	return rand.Int64N(MaxRandomSequence + 1)
}

// NewQuoteNumber formats the default template with a drawn sequence.
func NewQuoteNumber(createdAt time.Time, next SequenceFunc) string {
	if next == nil {
		next = RandomSequence
	}
	out, err := FormatQuoteNumber(DefaultQuoteNumberTemplate, createdAt, next())
	if err != nil {
		out, _ = FormatQuoteNumber(DefaultQuoteNumberTemplate, createdAt, 0)
	}
	return out
}
