package vision

import (
	"bytes"
	"strings"

	"github.com/disintegration/imaging"
)

// Aspect-ratio buckets for the geometry heuristic. The boundaries are coarse
// by design: near-square screenshots fall through to team_overview.
const (
	formationMinRatio   = 1.5
	playerStatsMaxRatio = 0.8
	matchStatsMinRatio  = 1.2
)

// ClassifyGeometry assigns an image type from the decoded image's aspect
// ratio alone. It is cheap and runs before any engine call. Undecodable
// images land in team_overview, same as the near-square bucket.
func ClassifyGeometry(img []byte) ImageType {
	decoded, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return TypeTeamOverview
	}
	b := decoded.Bounds()
	if b.Dy() == 0 {
		return TypeTeamOverview
	}
	ratio := float64(b.Dx()) / float64(b.Dy())
	switch {
	case ratio > formationMinRatio:
		return TypeFormation
	case ratio < playerStatsMaxRatio:
		return TypePlayerStats
	case ratio >= matchStatsMinRatio && ratio <= formationMinRatio:
		return TypeMatchStats
	default:
		return TypeTeamOverview
	}
}

// keywordBuckets drive the text heuristic. Order matters: the first bucket
// with a hit wins, there is no scoring or voting.
var keywordBuckets = []struct {
	typ      ImageType
	keywords []string
}{
	{TypeFormation, []string{"formation", "tactics", "lineup"}},
	{TypePlayerStats, []string{
		"shooting", "passing", "dribbling",
		// Italian stat-card labels
		"comportamento offensivo", "controllo palla", "finalizzazione",
		"velocità", "accelerazione",
	}},
	{TypeMatchStats, []string{"possession", "shots", "match"}},
	{TypeHeatmap, []string{"heatmap", "heat map"}},
}

// ClassifyText assigns an image type from recognized text. It is the
// authoritative classification once text exists, because aspect ratios lie
// for cropped or resized screenshots. Returns TypeUnknown when no keyword
// matches.
func ClassifyText(text string) ImageType {
	low := strings.ToLower(text)
	for _, b := range keywordBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(low, kw) {
				return b.typ
			}
		}
	}
	return TypeUnknown
}
