package grouper

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// Scorer is the pairwise similarity contract the Grouper depends on.
type Scorer interface {
	Score(a, b domain.ProcessedAsset) float64
}

// Inferer derives editable field guesses from OCR text.
type Inferer interface {
	Infer(text string) domain.Inference
}

type Config struct {
	PairThreshold     float64
	CarouselThreshold float64
	CarouselMin       int
	CarouselMax       int
}

func DefaultConfig() Config {
	return Config{
		PairThreshold:     0.55,
		CarouselThreshold: 0.65,
		CarouselMin:       domain.CarouselMinCards,
		CarouselMax:       domain.CarouselMaxCards,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.PairThreshold <= 0 || out.PairThreshold > 1 {
		out.PairThreshold = def.PairThreshold
	}
	if out.CarouselThreshold <= 0 || out.CarouselThreshold > 1 {
		out.CarouselThreshold = def.CarouselThreshold
	}
	if out.CarouselMin < 2 {
		out.CarouselMin = def.CarouselMin
	}
	if out.CarouselMax < out.CarouselMin {
		out.CarouselMax = def.CarouselMax
	}
	return out
}

// Options are per-run caller inputs.
type Options struct {
	StartNumber int
	Campaign    string
	Date        string
	// MonthCampaign fills an empty campaign with the current month token, e.g. "OctAds".
	MonthCampaign bool
}

type Grouper struct {
	scorer  Scorer
	inferer Inferer
	cfg     Config
	newID   func() string
	now     func() time.Time
}

func New(scorer Scorer, inferer Inferer, cfg Config) *Grouper {
	return &Grouper{
		scorer:  scorer,
		inferer: inferer,
		cfg:     cfg.normalize(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// WithIDGenerator swaps the group id source; tests use it for stable ids.
func (g *Grouper) WithIDGenerator(fn func() string) *Grouper {
	if fn != nil {
		g.newID = fn
	}
	return g
}

func (g *Grouper) WithClock(fn func() time.Time) *Grouper {
	if fn != nil {
		g.now = fn
	}
	return g
}

// draft is a group under construction; members are ingestion indices.
type draft struct {
	kind     domain.GroupType
	members  []int
	evidence domain.Evidence
}

func (d draft) earliest() int {
	out := d.members[0]
	for _, m := range d.members[1:] {
		if m < out {
			out = m
		}
	}
	return out
}

// Group partitions assets into carousels, story/feed pairs and singles.
// It never fails: anything that cannot be matched confidently becomes a single.
func (g *Grouper) Group(assets []domain.ProcessedAsset, opts Options) domain.GroupedAssets {
	used := make([]bool, len(assets))

	drafts := g.chainCarousels(assets, used)
	drafts = append(drafts, g.pairStories(assets, used)...)
	for i := range assets {
		if used[i] {
			continue
		}
		used[i] = true
		drafts = append(drafts, draft{
			kind:     domain.GroupSingle,
			members:  []int{i},
			evidence: domain.Evidence{Kind: domain.EvidenceForcedSingle, Exactness: confidence.Exactness(assets[i : i+1])},
		})
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].earliest() < drafts[j].earliest()
	})

	start := opts.StartNumber
	if start < 1 {
		start = 1
	}
	campaign := strings.TrimSpace(opts.Campaign)
	if campaign == "" && opts.MonthCampaign {
		campaign = MonthCampaign(g.now())
	}
	date := strings.TrimSpace(opts.Date)
	if date == "" {
		date = g.now().Format(DateLayout)
	}

	out := domain.GroupedAssets{
		Version:   1,
		Groups:    make([]domain.AdGroup, 0, len(drafts)),
		Ungrouped: []domain.ProcessedAsset{},
	}
	for i, d := range drafts {
		members := make([]domain.ProcessedAsset, len(d.members))
		for j, idx := range d.members {
			members[j] = assets[idx]
		}
		inference := g.inferer.Infer(domain.JoinOCR(members))
		out.Groups = append(out.Groups, domain.AdGroup{
			ID:        g.newID(),
			Type:      d.kind,
			Assets:    members,
			AdNumber:  start + i,
			Product:   inference.Product,
			Angle:     inference.Angle,
			Offer:     inference.Offer,
			Campaign:  campaign,
			Date:      date,
			Evidence:  d.evidence,
			Inference: inference,
		})
	}
	return out
}

// chainCarousels grows a chain from each unused square-ish seed, admitting the
// candidate with the best mean score to the running chain while it clears the
// cohesion threshold. Chains shorter than CarouselMin release their members.
func (g *Grouper) chainCarousels(assets []domain.ProcessedAsset, used []bool) []draft {
	candidates := make([]int, 0, len(assets))
	for i, a := range assets {
		if a.IsSquareish() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < g.cfg.CarouselMin {
		return nil
	}

	var out []draft
	for _, seed := range candidates {
		if used[seed] {
			continue
		}
		chain := []int{seed}
		inChain := map[int]bool{seed: true}
		var scores []float64

		for len(chain) < g.cfg.CarouselMax {
			best, bestScore := -1, -1.0
			for _, c := range candidates {
				if used[c] || inChain[c] {
					continue
				}
				s := g.meanScore(assets, c, chain)
				if s > bestScore {
					best, bestScore = c, s
				}
			}
			if best < 0 || bestScore < g.cfg.CarouselThreshold {
				break
			}
			chain = append(chain, best)
			inChain[best] = true
			scores = append(scores, bestScore)
		}

		if len(chain) < g.cfg.CarouselMin {
			continue
		}
		members := make([]domain.ProcessedAsset, len(chain))
		for i, idx := range chain {
			used[idx] = true
			members[i] = assets[idx]
		}
		out = append(out, draft{
			kind:    domain.GroupCarousel,
			members: chain,
			evidence: domain.Evidence{
				Kind:         domain.EvidenceCarouselChain,
				WinningScore: mean(scores),
				ChainScores:  scores,
				Exactness:    confidence.Exactness(members),
			},
		})
	}
	return out
}

func (g *Grouper) meanScore(assets []domain.ProcessedAsset, candidate int, chain []int) float64 {
	total := 0.0
	for _, m := range chain {
		total += g.scorer.Score(assets[candidate], assets[m])
	}
	return total / float64(len(chain))
}

type pairCandidate struct {
	story int
	feed  int
	score float64
}

// pairStories matches remaining story assets with feed-compatible ones,
// greedily by score. Ties fall back to ingestion order.
func (g *Grouper) pairStories(assets []domain.ProcessedAsset, used []bool) []draft {
	var stories, feeds []int
	for i, a := range assets {
		if used[i] {
			continue
		}
		switch {
		case a.IsStory():
			stories = append(stories, i)
		case a.IsFeedCompatible():
			feeds = append(feeds, i)
		}
	}
	if len(stories) == 0 || len(feeds) == 0 {
		return nil
	}

	all := make([]pairCandidate, 0, len(stories)*len(feeds))
	for _, s := range stories {
		for _, f := range feeds {
			all = append(all, pairCandidate{story: s, feed: f, score: g.scorer.Score(assets[s], assets[f])})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].story != all[j].story {
			return all[i].story < all[j].story
		}
		return all[i].feed < all[j].feed
	})

	var out []draft
	for _, p := range all {
		if p.score < g.cfg.PairThreshold {
			break
		}
		if used[p.story] || used[p.feed] {
			continue
		}
		used[p.story] = true
		used[p.feed] = true
		out = append(out, draft{
			kind:    domain.GroupStandard,
			members: []int{p.story, p.feed},
			evidence: domain.Evidence{
				Kind:          domain.EvidenceAutoPair,
				WinningScore:  p.score,
				RunnerUpScore: runnerUp(all, p),
				Exactness:     confidence.Exactness([]domain.ProcessedAsset{assets[p.story], assets[p.feed]}),
			},
		})
	}
	return out
}

// runnerUp is the best competing score that involved either side of the winning pair.
func runnerUp(all []pairCandidate, winner pairCandidate) float64 {
	best := 0.0
	for _, p := range all {
		if p.story == winner.story && p.feed == winner.feed {
			continue
		}
		if p.story != winner.story && p.feed != winner.feed {
			continue
		}
		if p.score > best {
			best = p.score
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
