package confidence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// AngleRule maps an angle label to the keywords that vote for it.
type AngleRule struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// RuleSet is the keyword configuration behind field inference.
type RuleSet struct {
	Angles        []AngleRule `yaml:"angles" json:"angles"`
	OfferPatterns []string    `yaml:"offer_patterns" json:"offer_patterns"`
}

// Signal strengths attached to inferred values.
const (
	ProductPhraseStrength  = 0.6
	ProductWordStrength    = 0.4
	AngleBaseStrength      = 0.3
	AnglePerHitStrength    = 0.15
	AngleMaxStrength       = 0.9
	OfferMultiHitStrength  = 0.9
	OfferSingleHitStrength = 0.7
	OfferNoHitStrength     = 0.5
	OfferNoTextStrength    = 0.2
)

func DefaultRuleSet() RuleSet {
	return RuleSet{
		Angles: []AngleRule{
			{Name: "Offer", Keywords: []string{"off", "discount", "sale", "deal", "save", "promo", "code", "coupon", "free"}},
			{Name: "Price", Keywords: []string{"$", "€", "£", "price", "cost", "only", "just", "from", "starting"}},
			{Name: "SocialProof", Keywords: []string{"reviews", "stars", "rated", "customers", "sold", "trusted", "loved", "favorite", "best"}},
			{Name: "Education", Keywords: []string{"how", "learn", "guide", "tips", "tutorial", "step", "discover", "understand"}},
			{Name: "BehindTheScenes", Keywords: []string{"behind", "making", "process", "studio", "team", "craft", "made"}},
			{Name: "Founder", Keywords: []string{"founder", "ceo", "owner", "story", "journey", "started", "mission"}},
			{Name: "Brand", Keywords: []string{"brand", "quality", "premium", "luxury", "original", "authentic"}},
			{Name: "Newness", Keywords: []string{"new", "launch", "introducing", "just arrived", "fresh", "latest", "coming soon"}},
		},
		OfferPatterns: []string{
			`\d+%\s*off`,
			`discount`,
			`sale`,
			`promo`,
			`code`,
			`coupon`,
			`free\s+shipping`,
			`buy\s+\d+\s+get`,
			`save\s+\$?\d+`,
			`limited\s+time`,
			`special\s+offer`,
		},
	}
}

var (
	productPhrasePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})\b`)
	productWordPattern   = regexp.MustCompile(`\b([A-Z][a-z]{3,})\b`)
)

// Inferer derives product, angle and offer from OCR text.
type Inferer struct {
	angles []AngleRule
	offers []*regexp.Regexp
}

func NewInferer(rules RuleSet) (*Inferer, error) {
	if len(rules.Angles) == 0 && len(rules.OfferPatterns) == 0 {
		rules = DefaultRuleSet()
	}

	angles := make([]AngleRule, 0, len(rules.Angles))
	for _, rule := range rules.Angles {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "inference rules", fmt.Errorf("angle rule without name"))
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		angles = append(angles, AngleRule{Name: name, Keywords: keywords})
	}

	offers := make([]*regexp.Regexp, 0, len(rules.OfferPatterns))
	for _, pattern := range rules.OfferPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "inference rules", fmt.Errorf("offer pattern %q: %w", pattern, err))
		}
		offers = append(offers, re)
	}

	return &Inferer{angles: angles, offers: offers}, nil
}

// MustDefaultInferer builds an Inferer from the built-in rules.
func MustDefaultInferer() *Inferer {
	inf, err := NewInferer(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return inf
}

func (i *Inferer) Infer(text string) domain.Inference {
	text = strings.TrimSpace(text)
	product, productStrength := inferProduct(text)
	angle, angleStrength := i.inferAngle(text)
	offer, offerStrength := i.inferOffer(text)
	return domain.Inference{
		Product:         product,
		ProductStrength: productStrength,
		Angle:           angle,
		AngleStrength:   angleStrength,
		Offer:           offer,
		OfferStrength:   offerStrength,
	}
}

// inferProduct prefers the longest capitalized 2-4 word phrase, then the first capitalized word.
func inferProduct(text string) (string, float64) {
	if text == "" {
		return "", 0
	}
	if matches := productPhrasePattern.FindAllString(text, -1); len(matches) > 0 {
		best := matches[0]
		for _, m := range matches[1:] {
			if len(m) > len(best) {
				best = m
			}
		}
		return strings.Join(strings.Fields(best), "_"), ProductPhraseStrength
	}
	if word := productWordPattern.FindString(text); word != "" {
		return word, ProductWordStrength
	}
	return "", 0
}

// inferAngle picks the rule with most keyword hits; ties go to the earlier rule.
func (i *Inferer) inferAngle(text string) (string, float64) {
	if text == "" {
		return "", 0
	}
	lower := strings.ToLower(text)

	bestName := ""
	bestHits := 0
	for _, rule := range i.angles {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestName = rule.Name
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return "", 0
	}
	return bestName, min(AngleMaxStrength, AngleBaseStrength+AnglePerHitStrength*float64(bestHits))
}

func (i *Inferer) inferOffer(text string) (bool, float64) {
	if text == "" {
		return false, OfferNoTextStrength
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, re := range i.offers {
		if re.MatchString(lower) {
			hits++
		}
	}
	switch {
	case hits >= 2:
		return true, OfferMultiHitStrength
	case hits == 1:
		return true, OfferSingleHitStrength
	default:
		return false, OfferNoHitStrength
	}
}
