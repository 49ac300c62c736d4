package bootstrap

import (
	"fmt"

	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
	"github.com/kirillkom/ad-autonamer/internal/core/grouper"
	"github.com/kirillkom/ad-autonamer/internal/core/matcher"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/rulesfile"
)

// Engine holds the pure grouping and review components. It has no I/O beyond
// reading the optional inference rules file, so the CLI can use it alone.
type Engine struct {
	Matcher *matcher.Matcher
	Inferer *confidence.Inferer
	Grouper *grouper.Grouper
	Model   *confidence.Model
	Mutator *store.Mutator
	Reader  *store.Reader
}

func NewEngine(cfg config.Config) (*Engine, error) {
	inferer, err := rulesfile.NewInferer(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load inference rules: %w", err)
	}

	m := matcher.New(matcher.Weights{
		Fingerprint: cfg.MatchFingerprintWeight,
		Text:        cfg.MatchTextWeight,
		NeutralText: cfg.MatchNeutralText,
	}, cfg.FingerprintBits)

	g := grouper.New(m, inferer, grouper.Config{
		PairThreshold:     cfg.PairThreshold,
		CarouselThreshold: cfg.CarouselThreshold,
		CarouselMin:       cfg.CarouselMinCards,
		CarouselMax:       cfg.CarouselMaxCards,
	})

	model := confidence.NewModel(confidence.Settings{
		MarginScale:     cfg.ConfidenceMarginScale,
		SingleScore:     cfg.ConfidenceSingleScore,
		ManualScore:     cfg.ConfidenceManualScore,
		ExactnessWeight: cfg.ConfidenceExactnessWeight,
	})

	mutator := store.NewMutator(inferer).WithCarouselBounds(cfg.CarouselMinCards, cfg.CarouselMaxCards)

	return &Engine{
		Matcher: m,
		Inferer: inferer,
		Grouper: g,
		Model:   model,
		Mutator: mutator,
		Reader:  store.NewReader(model),
	}, nil
}
