package matcher

import (
	"encoding/hex"
	"math/bits"
	"strings"
	"unicode"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// Weights control how fingerprint and OCR signals combine.
// NeutralText is the text contribution when both sides carry no OCR.
type Weights struct {
	Fingerprint float64
	Text        float64
	NeutralText float64
}

func DefaultWeights() Weights {
	return Weights{
		Fingerprint: 0.7,
		Text:        0.3,
		NeutralText: 0.5,
	}
}

const DefaultFingerprintBits = 64

type Matcher struct {
	weights Weights
	bits    int
}

func New(weights Weights, fingerprintBits int) *Matcher {
	def := DefaultWeights()
	if weights.Fingerprint < 0 {
		weights.Fingerprint = 0
	}
	if weights.Text < 0 {
		weights.Text = 0
	}
	if weights.Fingerprint+weights.Text == 0 {
		weights.Fingerprint = def.Fingerprint
		weights.Text = def.Text
	}
	if weights.NeutralText < 0 || weights.NeutralText > 1 {
		weights.NeutralText = def.NeutralText
	}
	if fingerprintBits <= 0 {
		fingerprintBits = DefaultFingerprintBits
	}
	return &Matcher{weights: weights, bits: fingerprintBits}
}

// Score returns a similarity in [0,1]. It never fails: a missing or malformed
// fingerprint drops that signal and the score rests on OCR overlap alone.
func (m *Matcher) Score(a, b domain.ProcessedAsset) float64 {
	text := TextOverlap(a.OCRText, b.OCRText, m.weights.NeutralText)

	fp, ok := FingerprintSimilarity(a.Fingerprint, b.Fingerprint, m.bits)
	if !ok || m.weights.Fingerprint == 0 {
		return clamp(text)
	}
	if m.weights.Text == 0 {
		return clamp(fp)
	}

	total := m.weights.Fingerprint + m.weights.Text
	return clamp((fp*m.weights.Fingerprint + text*m.weights.Text) / total)
}

// FingerprintSimilarity is 1 - hamming/bits for two hex codes of equal length.
func FingerprintSimilarity(a, b string, codeBits int) (float64, bool) {
	distance, ok := HammingDistance(a, b)
	if !ok {
		return 0, false
	}
	if codeBits <= 0 {
		codeBits = DefaultFingerprintBits
	}
	return clamp(1 - float64(distance)/float64(codeBits)), true
}

func HammingDistance(a, b string) (int, bool) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" || len(a) != len(b) {
		return 0, false
	}
	rawA, err := hex.DecodeString(a)
	if err != nil {
		return 0, false
	}
	rawB, err := hex.DecodeString(b)
	if err != nil {
		return 0, false
	}

	distance := 0
	for i := range rawA {
		distance += bits.OnesCount8(rawA[i] ^ rawB[i])
	}
	return distance, true
}

// TextOverlap is the Jaccard index over normalized token sets.
func TextOverlap(a, b string, neutral float64) float64 {
	left := Tokens(a)
	right := Tokens(b)
	switch {
	case len(left) == 0 && len(right) == 0:
		return neutral
	case len(left) == 0 || len(right) == 0:
		return 0
	}

	shared := 0
	for tok := range left {
		if _, ok := right[tok]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	return float64(shared) / float64(union)
}

// Tokens lower-cases text, strips punctuation and returns the distinct words.
func Tokens(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	out := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		out[tok] = struct{}{}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
