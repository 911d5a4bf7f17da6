package trend

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"realtime-rank/internal/domain/models"
)

const (
	rankCeiling = 101

	breakingBonus = 1.2

	freshRecency = 1.2
	warmRecency  = 1.0
	staleRecency = 0.8

	offPeakBonus    = 1.1
	offPeakLastHour = 6
)

var (
	aidPattern    = regexp.MustCompile(`aid=(\d+)`)
	pathIDPattern = regexp.MustCompile(`/(\d{10})`)
)

// ExtractID pulls the stable numeric article id out of a ranking-page link.
func ExtractID(link string) (string, bool) {
	if m := aidPattern.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	path, _, _ := strings.Cut(link, "?")
	if m := pathIDPattern.FindStringSubmatch(path); m != nil {
		return m[1], true
	}
	return "", false
}

// BaseScore is max(0, 101 - rank).
func BaseScore(sourceRank int) float64 {
	return math.Max(0, float64(rankCeiling-sourceRank))
}

// BreakingBonus returns 1.2 when the title carries one of the markers.
func BreakingBonus(title string, markers []string) float64 {
	lower := strings.ToLower(title)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return breakingBonus
		}
	}
	return 1.0
}

// RecencyFactor rewards articles younger than one hour and penalises anything older
// than three hours. An unknown publish time is treated as stale.
func RecencyFactor(published *time.Time, now time.Time) float64 {
	if published == nil {
		return staleRecency
	}
	age := now.Sub(*published)
	switch {
	case age < time.Hour:
		return freshRecency
	case age < 3*time.Hour:
		return warmRecency
	default:
		return staleRecency
	}
}

// OffPeakBonus returns 1.1 on weekends and between 00:00 and 06:59 in loc.
func OffPeakBonus(now time.Time, loc *time.Location) float64 {
	if loc != nil {
		now = now.In(loc)
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return offPeakBonus
	}
	if now.Hour() <= offPeakLastHour {
		return offPeakBonus
	}
	return 1.0
}

type scorer struct {
	markers []string
	now     time.Time
	offPeak float64
}

func newScorer(markers []string, now time.Time, loc *time.Location) scorer {
	return scorer{
		markers: markers,
		now:     now,
		offPeak: OffPeakBonus(now, loc),
	}
}

func (s scorer) score(a models.Article) float64 {
	return BaseScore(a.SourceRank) *
		BreakingBonus(a.Title, s.markers) *
		RecencyFactor(a.PublishTime, s.now) *
		s.offPeak
}

// scoreArticles annotates every article that has a stable id and returns them in
// input order, plus the number dropped for lacking one.
func (s scorer) scoreArticles(articles []models.Article) ([]models.Article, int) {
	scored := make([]models.Article, 0, len(articles))
	missing := 0
	for _, a := range articles {
		id, ok := ExtractID(a.Link)
		if !ok {
			missing++
			continue
		}
		a.ID = id
		a.Score = s.score(a)
		scored = append(scored, a)
	}
	return scored, missing
}

// auditTable renders the scored articles sorted by score, highest first.
func auditTable(scored []models.Article) []models.ScoredArticle {
	rows := make([]models.ScoredArticle, 0, len(scored))
	for _, a := range scored {
		rows = append(rows, models.ScoredArticle{
			ID:          a.ID,
			Title:       a.Title,
			Link:        a.Link,
			SourceRank:  a.SourceRank,
			PublishTime: a.PublishTime,
			Score:       a.Score,
		})
	}
	slices.SortStableFunc(rows, func(a, b models.ScoredArticle) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return rows
}
