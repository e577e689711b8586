// Package generator builds random challenge material: captcha strings,
// digit sequences, sums and word lines.
package generator

import (
	"math/rand"
	"strings"
	"unicode"
)

const (
	plainAlphabet     = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	confusingAlphabet = "O0oIl1|S5sZ2zB8"
)

// Generator produces randomized challenge material.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator drawing from rnd.
func New(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Captcha returns length random characters. With confusing set, look-alike
// characters are mixed in at roughly one in three positions.
func (g *Generator) Captcha(length int, confusing bool) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		alphabet := plainAlphabet
		if confusing && g.rnd.Intn(3) == 0 {
			alphabet = confusingAlphabet
		}
		b.WriteByte(alphabet[g.rnd.Intn(len(alphabet))])
	}
	return b.String()
}

// Digits returns n random decimal digits.
func (g *Generator) Digits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rnd.Intn(10)))
	}
	return b.String()
}

// Sum is an arithmetic prompt.
type Sum struct {
	A, B   int
	Op     byte
	Answer int
}

// Sums returns count problems with operands below limit.
func (g *Generator) Sums(count, limit int) []Sum {
	if limit < 2 {
		limit = 2
	}
	out := make([]Sum, 0, count)
	for i := 0; i < count; i++ {
		a := 1 + g.rnd.Intn(limit-1)
		b := 1 + g.rnd.Intn(limit-1)
		switch g.rnd.Intn(3) {
		case 0:
			out = append(out, Sum{A: a, B: b, Op: '+', Answer: a + b})
		case 1:
			if b > a {
				a, b = b, a
			}
			out = append(out, Sum{A: a, B: b, Op: '-', Answer: a - b})
		default:
			a, b = 1+a%12, 1+b%12
			out = append(out, Sum{A: a, B: b, Op: '*', Answer: a * b})
		}
	}
	return out
}

// Words selects count words uniformly and capitalizes some of them.
func (g *Generator) Words(words []string, count int, capsPct float64) []string {
	if len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		result = append(result, applyCaps(g.rnd, word, capsPct))
	}
	return result
}

// Intn exposes the underlying source for callers sharing one sequence.
func (g *Generator) Intn(n int) int {
	return g.rnd.Intn(n)
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
