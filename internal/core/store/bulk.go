package store

import (
	"fmt"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// BulkReplace swaps exact matches of find for replace in one field across all
// groups. No match leaves the snapshot as it was, version included.
func (m *Mutator) BulkReplace(s domain.GroupedAssets, field, find, replace string) (domain.GroupedAssets, error) {
	f, err := domain.ParseField(field)
	if err != nil {
		return domain.GroupedAssets{}, fmt.Errorf("bulk replace: %w", err)
	}

	var hits []int
	for i, g := range s.Groups {
		if g.Matches(f, find) {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return s, nil
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	for _, i := range hits {
		out.Groups[i].Set(f, replace)
	}
	return out, nil
}

// BulkApply sets field to value on every listed group. Any unknown id fails
// the whole call and the error lists all of them.
func (m *Mutator) BulkApply(s domain.GroupedAssets, groupIDs []string, field, value string) (domain.GroupedAssets, error) {
	f, err := domain.ParseField(field)
	if err != nil {
		return domain.GroupedAssets{}, fmt.Errorf("bulk apply: %w", err)
	}
	if len(groupIDs) == 0 {
		return domain.GroupedAssets{}, domain.WrapError(domain.ErrInvalidInput, "bulk apply", fmt.Errorf("no group ids given"))
	}

	indices := make([]int, 0, len(groupIDs))
	seen := make(map[string]bool, len(groupIDs))
	var missing []string
	for _, id := range groupIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		gi := s.GroupIndex(id)
		if gi < 0 {
			missing = append(missing, id)
			continue
		}
		indices = append(indices, gi)
	}
	if len(missing) > 0 {
		return domain.GroupedAssets{}, domain.NotFound("bulk apply", "group", missing...)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	for _, gi := range indices {
		out.Groups[gi].Set(f, value)
	}
	return out, nil
}
