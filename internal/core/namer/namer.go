package namer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

const (
	separator   = "_"
	offerMarker = "Offer"
)

var separatorRun = regexp.MustCompile(`_{2,}`)

// Filename derives the file name for the asset at index (0-based) of group.
// A custom override is returned verbatim.
func Filename(group domain.AdGroup, index int, asset domain.ProcessedAsset) string {
	if asset.CustomFilename != "" {
		return asset.CustomFilename
	}
	ext := asset.Extension()
	if group.Type == domain.GroupCarousel {
		return fmt.Sprintf("%04d_CAR_Card%02d.%s", group.AdNumber, index+1, ext)
	}
	return fmt.Sprintf("%03d_%s_%s.%s", group.AdNumber, asset.TypeToken(), asset.EffectivePlacement(), ext)
}

// Filenames returns the derived names for every member in display order.
func Filenames(group domain.AdGroup) []string {
	out := make([]string, len(group.Assets))
	for i, a := range group.Assets {
		out[i] = Filename(group, i, a)
	}
	return out
}

// Occurrences counts every derived filename across the snapshot.
func Occurrences(snapshot domain.GroupedAssets) map[string]int {
	counts := make(map[string]int)
	for _, g := range snapshot.Groups {
		for _, name := range Filenames(g) {
			counts[name]++
		}
	}
	return counts
}

// Duplicates returns the filenames that occur more than once, sorted.
func Duplicates(snapshot domain.GroupedAssets) []string {
	var out []string
	for name, n := range Occurrences(snapshot) {
		if n > 1 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AdName builds the ad-name preview: present fields joined by "_" with
// separator runs collapsed.
func AdName(group domain.AdGroup) string {
	parts := []string{
		fmt.Sprintf("%03d", group.AdNumber),
		group.Campaign,
		group.Product,
		group.FormatToken(),
		group.Angle,
		group.Hook,
		group.Creator,
	}
	if group.Offer {
		parts = append(parts, offerMarker)
	}
	parts = append(parts, group.Date)

	present := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			present = append(present, p)
		}
	}
	joined := strings.Join(present, separator)
	joined = separatorRun.ReplaceAllString(joined, separator)
	return strings.Trim(joined, separator)
}
