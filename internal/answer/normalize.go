// Package answer canonicalizes free-text quiz answers so that "Seven", " 7 " and "seven"
// compare equal.
package answer

import (
	"strconv"
	"strings"
)

type wordKind int

const (
	kindNone wordKind = iota
	kindUnit
	kindTeen
	kindTens
	kindHundred
	kindScale
)

type numberWord struct {
	value int
	kind  wordKind
}

var numberWords = map[string]numberWord{
	"zero": {0, kindUnit}, "one": {1, kindUnit}, "two": {2, kindUnit}, "three": {3, kindUnit},
	"four": {4, kindUnit}, "five": {5, kindUnit}, "six": {6, kindUnit}, "seven": {7, kindUnit},
	"eight": {8, kindUnit}, "nine": {9, kindUnit},
	"ten": {10, kindTeen}, "eleven": {11, kindTeen}, "twelve": {12, kindTeen}, "thirteen": {13, kindTeen},
	"fourteen": {14, kindTeen}, "fifteen": {15, kindTeen}, "sixteen": {16, kindTeen},
	"seventeen": {17, kindTeen}, "eighteen": {18, kindTeen}, "nineteen": {19, kindTeen},
	"twenty": {20, kindTens}, "thirty": {30, kindTens}, "forty": {40, kindTens}, "fifty": {50, kindTens},
	"sixty": {60, kindTens}, "seventy": {70, kindTens}, "eighty": {80, kindTens}, "ninety": {90, kindTens},
	"hundred":  {100, kindHundred},
	"thousand": {1_000, kindScale},
	"million":  {1_000_000, kindScale},
}

// Normalize lowercases, trims and collapses whitespace, then rewrites spelled-out numbers
// as digits. Both the stored answer and the submitted text go through it before an exact
// comparison.
func Normalize(raw string) string {
	s := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if converted, ok := WordsToDigits(s); ok {
		return converted
	}
	return s
}

// Equal reports whether two answers match after normalization.
func Equal(expected, given string) bool {
	return Normalize(expected) == Normalize(given)
}

// WordsToDigits replaces every run of number words in s with its digit form.
// ok is false when s contains no number words.
func WordsToDigits(s string) (string, bool) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return "", false
	}

	var (
		out       []string
		run       numberRun
		converted bool
	)
	flush := func() {
		if run.active {
			out = append(out, strconv.Itoa(run.value()))
			converted = true
		}
		run = numberRun{}
	}

	for i, tok := range tokens {
		parts, ok := splitNumberToken(tok)
		if !ok {
			// "one hundred and five": "and" only joins words of the same number.
			if tok == "and" && i+1 < len(tokens) && run.continuesWith(tokens[i+1]) {
				continue
			}
			flush()
			out = append(out, tok)
			continue
		}
		for _, w := range parts {
			if !run.accepts(w) {
				flush()
			}
			run.add(w)
		}
	}
	flush()

	if !converted {
		return "", false
	}
	return strings.Join(out, " "), true
}

// continuesWith reports whether tok extends the current run rather than starting a new number.
func (r *numberRun) continuesWith(tok string) bool {
	if !r.active {
		return false
	}
	parts, ok := splitNumberToken(tok)
	return ok && r.accepts(parts[0])
}

// splitNumberToken accepts "seven" and hyphenated forms such as "twenty-one".
func splitNumberToken(tok string) ([]numberWord, bool) {
	pieces := strings.Split(tok, "-")
	words := make([]numberWord, 0, len(pieces))
	for _, p := range pieces {
		w, ok := numberWords[p]
		if !ok {
			return nil, false
		}
		words = append(words, w)
	}
	return words, true
}

type numberRun struct {
	active  bool
	total   int
	current int
	last    wordKind
}

func (r *numberRun) accepts(w numberWord) bool {
	if !r.active {
		return true
	}
	switch w.kind {
	case kindUnit:
		return r.last == kindTens || r.last == kindHundred || r.last == kindScale
	case kindTeen, kindTens:
		return r.last == kindHundred || r.last == kindScale
	case kindHundred:
		return r.last == kindUnit || r.last == kindTeen || r.last == kindTens
	case kindScale:
		return r.last != kindScale || r.current > 0
	}
	return false
}

func (r *numberRun) add(w numberWord) {
	switch w.kind {
	case kindHundred:
		if r.current == 0 {
			r.current = 1
		}
		r.current *= w.value
	case kindScale:
		n := r.current
		if n == 0 && r.total == 0 {
			n = 1
		}
		r.total += n * w.value
		r.current = 0
	default:
		r.current += w.value
	}
	r.active = true
	r.last = w.kind
}

func (r *numberRun) value() int { return r.total + r.current }
