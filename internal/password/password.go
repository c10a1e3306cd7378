// Package password scores, generates and fingerprints user passwords.
// None of it affects how containers are encrypted.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLength     = 8
	DefaultLength = 12
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	symbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Rating buckets an overall score.
type Rating string

const (
	Weak       Rating = "Weak"
	Moderate   Rating = "Moderate"
	Strong     Rating = "Strong"
	VeryStrong Rating = "Very Strong"
)

// Criterion is a single check of the analysis. Score counts toward the
// total only when Passed.
type Criterion struct {
	Name   string
	Passed bool
	Score  int
}

type Analysis struct {
	Criteria []Criterion
	Score    int
	Rating   Rating
}

// Patterns are matched against the lowercased password.
var commonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`^[a-z]+$`),
	regexp.MustCompile(`123456`),
	regexp.MustCompile(`password`),
	regexp.MustCompile(`qwerty`),
}

type classes struct {
	upper, lower, digit, special bool
}

func (c classes) count() int {
	n := 0
	for _, ok := range []bool{c.upper, c.lower, c.digit, c.special} {
		if ok {
			n++
		}
	}
	return n
}

func classify(pw string) classes {
	var c classes
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case r < utf8.RuneSelf && strings.ContainsRune(symbols, r):
			c.special = true
		}
	}
	return c
}

// HasCommonPattern reports whether pw is all digits, all letters, or
// contains a well-known weak sequence.
func HasCommonPattern(pw string) bool {
	lower := strings.ToLower(pw)
	for _, re := range commonPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Analyze scores pw out of 80.
func Analyze(pw string) Analysis {
	length := utf8.RuneCountInString(pw)
	c := classify(pw)

	a := Analysis{
		Criteria: []Criterion{
			{Name: "length", Passed: length >= MinLength, Score: min(length*2, 20)},
			{Name: "uppercase", Passed: c.upper, Score: 10},
			{Name: "lowercase", Passed: c.lower, Score: 10},
			{Name: "numbers", Passed: c.digit, Score: 10},
			{Name: "special_chars", Passed: c.special, Score: 10},
			{Name: "common_patterns", Passed: !HasCommonPattern(pw), Score: 20},
		},
	}
	for _, cr := range a.Criteria {
		if cr.Passed {
			a.Score += cr.Score
		}
	}
	a.Rating = rate(a.Score)
	return a
}

func rate(score int) Rating {
	switch {
	case score >= 70:
		return VeryStrong
	case score >= 50:
		return Strong
	case score >= 30:
		return Moderate
	default:
		return Weak
	}
}

// IsStrong requires at least MinLength characters and three of the four
// character classes.
func IsStrong(pw string) bool {
	if utf8.RuneCountInString(pw) < MinLength {
		return false
	}
	return classify(pw).count() >= 3
}

// Generate returns a random password that satisfies IsStrong. Lengths below
// MinLength are raised to it. Letters are always included; with neither
// numbers nor symbols requested, digits are added so a strong result exists.
func Generate(length int, withSymbols, withNumbers bool) (string, error) {
	return generate(rand.Reader, length, withSymbols, withNumbers)
}

func generate(random io.Reader, length int, withSymbols, withNumbers bool) (string, error) {
	length = max(length, MinLength)

	charset := letters
	if withNumbers {
		charset += digits
	}
	if withSymbols {
		charset += symbols
	}
	if !withNumbers && !withSymbols {
		charset += digits
	}

	limit := big.NewInt(int64(len(charset)))
	buf := make([]byte, length)
	for {
		for i := range buf {
			n, err := rand.Int(random, limit)
			if err != nil {
				return "", fmt.Errorf("failed to generate password: %w", err)
			}
			buf[i] = charset[n.Int64()]
		}
		if pw := string(buf); IsStrong(pw) {
			return pw, nil
		}
	}
}

// Hash returns the hex SHA-256 of pw. It is a display fingerprint, not a
// password storage scheme.
func Hash(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}
