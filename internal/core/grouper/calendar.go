package grouper

import "time"

// DateLayout renders dates as YYYY.MM.DD.
const DateLayout = "2006.01.02"

// MonthCampaign returns the default campaign token for t, e.g. "JanAds".
func MonthCampaign(t time.Time) string {
	return t.Format("Jan") + "Ads"
}
