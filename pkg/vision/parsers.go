package vision

import (
	"regexp"
	"strconv"
	"strings"
)

// Per-variant confidence constants. The values are fixed irrespective of how
// many patterns matched; scaling them with coverage is an open product
// decision.
const (
	confFormation   = 0.85
	confPlayerStats = 0.80
	confMatchStats  = 0.85
	confHeatmap     = 0.70
	confGeneric     = 0.75
)

// genericMaxLines bounds how many raw lines the generic parser keeps.
const genericMaxLines = 10

var (
	formationRE   = regexp.MustCompile(`\d+-\d+-\d+`)
	playerLineRE  = regexp.MustCompile(`([A-Za-zÀ-ÿ'. -]+)\s*\(([A-Z]+)\)`)
	statLineRE    = regexp.MustCompile(`([A-Za-zÀ-ÿ -]+):\s*(\d+)\s*$`)
	matchStatRE   = regexp.MustCompile(`([A-Za-zÀ-ÿ -]+):\s*(\d+)\s*-\s*(\d+)`)
	attackAreasRE = regexp.MustCompile(`(\d+)%\D+(\d+)%\D+(\d+)%`)
)

// Parse converts recognized text into a typed record for the given image
// type. All parsers are total: missing patterns produce a valid
// low-confidence record, never an error.
func Parse(typ ImageType, text string) *ParsedRecord {
	lines := splitLines(text)
	switch typ {
	case TypeFormation:
		return parseFormation(lines, text)
	case TypePlayerStats:
		return parsePlayerStats(lines, text)
	case TypeMatchStats:
		return parseMatchStats(lines, text)
	case TypeHeatmap:
		return parseHeatmap(lines, text)
	default:
		return parseGeneric(typ, lines, text)
	}
}

// parseFormation extracts the formation label (first d-d-d match) and the
// player list. Players keep line order; no deduplication.
func parseFormation(lines []string, rawText string) *ParsedRecord {
	formation := "Unknown"
	var players []Player
	for _, ln := range lines {
		if formation == "Unknown" {
			if m := formationRE.FindString(ln); m != "" {
				formation = m
			}
		}
		if m := playerLineRE.FindStringSubmatch(ln); m != nil {
			pos := strings.TrimSpace(m[2])
			players = append(players, Player{
				Name:     strings.TrimSpace(m[1]),
				Position: pos,
				Role:     roleForPosition(pos),
			})
		}
	}
	return &ParsedRecord{
		Type:       TypeFormation,
		Formation:  formation,
		Players:    players,
		RawText:    snippet(rawText, rawTextLimit),
		Confidence: confFormation,
	}
}

// parsePlayerStats buckets "label: value" lines into canonical stat keys via
// the alias table. Unmatched lines are ignored.
func parsePlayerStats(lines []string, rawText string) *ParsedRecord {
	stats := map[string]int{}
	for _, ln := range lines {
		m := statLineRE.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(m[1]))
		value, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if key, ok := canonicalStatKey(label); ok {
			stats[key] = value
		}
	}
	return &ParsedRecord{
		Type:       TypePlayerStats,
		Stats:      stats,
		RawText:    snippet(rawText, rawTextLimit),
		Confidence: confPlayerStats,
	}
}

// canonicalStatKey resolves a lower-cased label against the alias table.
// First alias that substring-matches wins.
func canonicalStatKey(label string) (string, bool) {
	for _, sa := range playerStatAliases {
		for _, alias := range sa.aliases {
			if strings.Contains(label, alias) {
				return sa.key, true
			}
		}
	}
	return "", false
}

// parseMatchStats records "label: a - b" pairs under the lower-cased label,
// left value home, right value away.
func parseMatchStats(lines []string, rawText string) *ParsedRecord {
	home := map[string]int{}
	away := map[string]int{}
	for _, ln := range lines {
		m := matchStatRE.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(m[1]))
		h, err1 := strconv.Atoi(m[2])
		a, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil {
			continue
		}
		home[label] = h
		away[label] = a
	}
	return &ParsedRecord{
		Type:       TypeMatchStats,
		Home:       home,
		Away:       away,
		RawText:    snippet(rawText, rawTextLimit),
		Confidence: confMatchStats,
	}
}

// parseHeatmap extracts attack-area percentages when the summary panel is
// readable. Zone/intensity extraction is not implemented; the record says so
// explicitly instead of fabricating zones.
func parseHeatmap(lines []string, rawText string) *ParsedRecord {
	rec := &ParsedRecord{
		Type:       TypeHeatmap,
		Analysis:   "heatmap zone analysis not yet supported",
		RawText:    snippet(rawText, rawTextLimit),
		Confidence: confHeatmap,
	}
	if m := attackAreasRE.FindStringSubmatch(rawText); m != nil {
		left, _ := strconv.Atoi(m[1])
		center, _ := strconv.Atoi(m[2])
		right, _ := strconv.Atoi(m[3])
		rec.AttackAreas = &AttackAreas{Left: left, Center: center, Right: right}
	}
	return rec
}

// parseGeneric keeps the first lines verbatim plus a word count for screens
// no dedicated parser understands.
func parseGeneric(typ ImageType, lines []string, rawText string) *ParsedRecord {
	kept := lines
	if len(kept) > genericMaxLines {
		kept = kept[:genericMaxLines]
	}
	if typ == "" {
		typ = TypeUnknown
	}
	return &ParsedRecord{
		Type:       typ,
		Lines:      kept,
		WordCount:  len(strings.Fields(rawText)),
		RawText:    snippet(rawText, rawTextLimit),
		Confidence: confGeneric,
	}
}
