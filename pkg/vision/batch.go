package vision

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matchlens/pkg/metrics"
)

// knownSlotOrder fixes the merge order so the aggregate is identical
// regardless of which slot finishes first. Extra slots merge after these,
// sorted by name.
var knownSlotOrder = []string{SlotStats, SlotRatings, SlotHeatmapOffensive, SlotHeatmapDefensive}

// Italian match-KPI labels as they appear on the game's stats panel. Single
// values, unlike the home/away pairs the match-stats parser handles.
var matchKPIPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"possesso", regexp.MustCompile(`(?i)possesso[:\s]*(\d+)`)},
	{"tiriInPorta", regexp.MustCompile(`(?i)tiri\s+in\s+porta[:\s]*(\d+)`)},
	{"tiri", regexp.MustCompile(`(?i)tiri[:\s]*(\d+)`)},
	{"precisionePassaggi", regexp.MustCompile(`(?i)precisione\s+passaggi[:\s]*(\d+)`)},
	{"corner", regexp.MustCompile(`(?i)corner[:\s]*(\d+)`)},
	{"falli", regexp.MustCompile(`(?i)falli[:\s]*(\d+)`)},
	{"golFatti", regexp.MustCompile(`(?i)gol\s+fatti[:\s]*(\d+)`)},
	{"golSubiti", regexp.MustCompile(`(?i)gol\s+subiti[:\s]*(\d+)`)},
}

// ratingLineRE captures "Player Name 7.5" rows of the ratings table.
var ratingLineRE = regexp.MustCompile(`([A-Za-zÀ-ÿ'. -]{3,}?)\s+(\d+(?:\.\d+)?)`)

// BatchAnalyzer drives a set of named image slots through the single-image
// analyzer and merges the successes into one match record.
type BatchAnalyzer struct {
	analyzer *Analyzer
	log      *logrus.Entry
}

func NewBatchAnalyzer(a *Analyzer, log *logrus.Entry) *BatchAnalyzer {
	return &BatchAnalyzer{analyzer: a, log: log}
}

// AnalyzeBatch analyzes every provided slot concurrently and merges the
// results. Slots are isolated: one failing slot is reported by name and the
// rest still contribute. Failed or absent slots leave their aggregate fields
// alone, so "no data" stays distinguishable from "measured zero".
func (b *BatchAnalyzer) AnalyzeBatch(ctx context.Context, images map[string][]byte) (*BatchResult, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images provided")
	}

	type outcome struct {
		rec  *ParsedRecord
		text string
		err  error
	}
	outcomes := make(map[string]outcome, len(images))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for slot, img := range images {
		if len(img) == 0 {
			continue
		}
		wg.Add(1)
		go func(slot string, img []byte) {
			defer wg.Done()
			// The full recognized text travels with the record: slot regexes
			// must see every line, not the truncated RawText debug copy.
			rec, text, err := b.analyzer.analyze(ctx, img)
			mu.Lock()
			outcomes[slot] = outcome{rec: rec, text: text, err: err}
			mu.Unlock()
		}(slot, img)
	}
	wg.Wait()

	result := &BatchResult{
		ID: uuid.NewString(),
		Aggregate: AggregatedMatchRecord{
			Stats: map[string]int{},
		},
		FailedSlots: map[string]string{},
	}
	slots := make([]string, 0, len(outcomes))
	for slot := range outcomes {
		slots = append(slots, slot)
	}
	for _, slot := range mergeOrder(slots) {
		o := outcomes[slot]
		if o.err != nil {
			result.FailedSlots[slot] = o.err.Error()
			metrics.RecordSlotFailure(slot)
			if b.log != nil {
				b.log.WithField("slot", slot).WithError(o.err).Warn("batch slot failed")
			}
			continue
		}
		result.Analyzed = append(result.Analyzed, slot)
		mergeSlot(&result.Aggregate, slot, o.rec, o.text)
	}
	if len(result.FailedSlots) == 0 {
		result.FailedSlots = nil
	}
	if b.log != nil {
		b.log.WithFields(logrus.Fields{
			"batch":    result.ID,
			"analyzed": len(result.Analyzed),
			"failed":   len(outcomes) - len(result.Analyzed),
		}).Info("batch aggregated")
	}
	return result, nil
}

// mergeOrder arranges slots for merging: known slots first in fixed order,
// the rest sorted by name.
func mergeOrder(slots []string) []string {
	present := map[string]bool{}
	for _, slot := range slots {
		present[slot] = true
	}
	var order []string
	for _, slot := range knownSlotOrder {
		if present[slot] {
			order = append(order, slot)
			delete(present, slot)
		}
	}
	var extra []string
	for slot := range present {
		extra = append(extra, slot)
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// mergeSlot routes one successful record into the aggregate by slot role.
// text is the full recognized text for the slot.
func mergeSlot(agg *AggregatedMatchRecord, slot string, rec *ParsedRecord, text string) {
	if rec == nil {
		return
	}
	if rec.Type == TypePlayerStats {
		for k, v := range rec.Stats {
			agg.Stats[k] = v
		}
	}
	if slot == SlotStats {
		for k, v := range extractMatchKPIs(text) {
			agg.Stats[k] = v
		}
	}
	if rec.Type == TypeMatchStats || slot == SlotRatings {
		agg.Ratings = append(agg.Ratings, extractRatings(text)...)
	}
	if rec.Type == TypeHeatmap {
		switch slot {
		case SlotHeatmapOffensive:
			if agg.Heatmaps.Offensive == nil {
				agg.Heatmaps.Offensive = rec
			}
		case SlotHeatmapDefensive:
			if agg.Heatmaps.Defensive == nil {
				agg.Heatmaps.Defensive = rec
			}
		}
	}
}

// extractMatchKPIs pulls single-value Italian match stats off the stats
// panel text.
func extractMatchKPIs(text string) map[string]int {
	out := map[string]int{}
	for _, p := range matchKPIPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				out[p.key] = v
			}
		}
	}
	return out
}

// extractRatings pulls "name rating" rows with a plausible rating in (0,10].
func extractRatings(text string) []PlayerRating {
	var out []PlayerRating
	for _, m := range ratingLineRE.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		rating, err := strconv.ParseFloat(m[2], 64)
		if err != nil || len(name) <= 2 || rating <= 0 || rating > 10 {
			continue
		}
		out = append(out, PlayerRating{Player: name, Rating: rating})
	}
	return out
}
