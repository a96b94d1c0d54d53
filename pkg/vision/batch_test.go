package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// dimEngine serves canned text keyed by image width. Preprocessing preserves
// dimensions, so tests can route different text to different batch slots.
type dimEngine struct {
	byWidth  map[int]string
	errWidth int
}

func (d *dimEngine) Init(ctx context.Context) error { return nil }

func (d *dimEngine) Recognize(ctx context.Context, img []byte) (Result, error) {
	decoded, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return Result{}, err
	}
	w := decoded.Bounds().Dx()
	if w == d.errWidth {
		return Result{}, errors.New("slot engine failure")
	}
	return Result{Text: d.byWidth[w], Confidence: 0.9}, nil
}

func (d *dimEngine) Close() error { return nil }

func batchImages(t *testing.T) map[string][]byte {
	t.Helper()
	return map[string][]byte{
		SlotStats:            pngBytes(t, 400, 400),
		SlotRatings:          pngBytes(t, 500, 1000),
		SlotHeatmapOffensive: pngBytes(t, 700, 500),
		SlotHeatmapDefensive: pngBytes(t, 800, 500),
	}
}

func batchEngine() *dimEngine {
	return &dimEngine{byWidth: map[int]string{
		400: "Match\nPossesso: 58\nTiri: 14\nTiri in porta: 6",
		500: "Pagelle\nDonnarumma 7.5\nTonali 8",
		700: "heatmap attacco 46% 45% 9%",
		800: "heatmap difesa 30% 50% 20%",
	}}
}

func newBatchAnalyzer(t *testing.T, eng Engine) *BatchAnalyzer {
	t.Helper()
	a := NewAnalyzer(eng)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return NewBatchAnalyzer(a, nil)
}

func TestAnalyzeBatchMergesSlots(t *testing.T) {
	b := newBatchAnalyzer(t, batchEngine())
	res, err := b.AnalyzeBatch(context.Background(), batchImages(t))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(res.Analyzed) != 4 || res.FailedSlots != nil {
		t.Fatalf("expected 4 analyzed slots, got analyzed=%v failed=%v", res.Analyzed, res.FailedSlots)
	}
	agg := res.Aggregate
	if agg.Stats["possesso"] != 58 || agg.Stats["tiri"] != 14 || agg.Stats["tiriInPorta"] != 6 {
		t.Fatalf("unexpected match KPIs %v", agg.Stats)
	}
	if len(agg.Ratings) != 2 || agg.Ratings[0].Player != "Donnarumma" || agg.Ratings[0].Rating != 7.5 {
		t.Fatalf("unexpected ratings %v", agg.Ratings)
	}
	if agg.Heatmaps.Offensive == nil || agg.Heatmaps.Defensive == nil {
		t.Fatalf("expected both heatmap slots, got %+v", agg.Heatmaps)
	}
	if agg.Heatmaps.Offensive.AttackAreas == nil || agg.Heatmaps.Offensive.AttackAreas.Left != 46 {
		t.Fatalf("unexpected offensive attack areas %+v", agg.Heatmaps.Offensive.AttackAreas)
	}
	if res.ID == "" {
		t.Fatalf("batch result must carry an id")
	}
}

func TestAnalyzeBatchSlotIsolation(t *testing.T) {
	eng := batchEngine()
	eng.errWidth = 500 // ratings slot fails
	b := newBatchAnalyzer(t, eng)
	res, err := b.AnalyzeBatch(context.Background(), batchImages(t))
	if err != nil {
		t.Fatalf("one failing slot must not fail the batch: %v", err)
	}
	if _, ok := res.FailedSlots[SlotRatings]; !ok {
		t.Fatalf("ratings failure must be reported by name, got %v", res.FailedSlots)
	}
	if len(res.Analyzed) != 3 {
		t.Fatalf("other slots must still contribute, analyzed=%v", res.Analyzed)
	}
	agg := res.Aggregate
	if agg.Stats["possesso"] != 58 {
		t.Fatalf("stats slot lost: %v", agg.Stats)
	}
	if len(agg.Ratings) != 0 {
		t.Fatalf("failed slot must leave ratings alone, got %v", agg.Ratings)
	}
	if agg.Heatmaps.Offensive == nil || agg.Heatmaps.Defensive == nil {
		t.Fatalf("heatmap slots lost: %+v", agg.Heatmaps)
	}
}

// The aggregate must not depend on which slot finishes first.
func TestAnalyzeBatchDeterministic(t *testing.T) {
	b := newBatchAnalyzer(t, batchEngine())
	first, err := b.AnalyzeBatch(context.Background(), batchImages(t))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.AnalyzeBatch(context.Background(), batchImages(t))
		if err != nil {
			t.Fatalf("batch: %v", err)
		}
		if !reflect.DeepEqual(first.Aggregate, again.Aggregate) {
			t.Fatalf("aggregate differs across runs:\n%+v\n%+v", first.Aggregate, again.Aggregate)
		}
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	b := newBatchAnalyzer(t, batchEngine())
	if _, err := b.AnalyzeBatch(context.Background(), nil); err == nil {
		t.Fatalf("empty batch must be rejected")
	}
}

func TestAnalyzeBatchSkipsEmptySlots(t *testing.T) {
	b := newBatchAnalyzer(t, batchEngine())
	images := map[string][]byte{
		SlotStats:   pngBytes(t, 400, 400),
		SlotRatings: nil,
	}
	res, err := b.AnalyzeBatch(context.Background(), images)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(res.Analyzed) != 1 || res.Analyzed[0] != SlotStats {
		t.Fatalf("empty slot must be skipped, analyzed=%v", res.Analyzed)
	}
}

// A full ratings screen lists both squads, well past the RawText debug copy.
// Extraction must see the whole recognized text.
func TestAnalyzeBatchRatingsBeyondRawTextLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Pagelle\n")
	for i := 0; i < 22; i++ {
		fmt.Fprintf(&sb, "Giocatore %c%c Bianchi %d.5\n", 'A'+i, 'a'+i, i%9+1)
	}
	text := sb.String()
	if len(text) <= rawTextLimit {
		t.Fatalf("fixture must exceed the raw text limit, got %d bytes", len(text))
	}
	eng := &dimEngine{byWidth: map[int]string{500: text}}
	b := newBatchAnalyzer(t, eng)
	res, err := b.AnalyzeBatch(context.Background(), map[string][]byte{
		SlotRatings: pngBytes(t, 500, 1000),
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(res.Aggregate.Ratings) != 22 {
		t.Fatalf("expected 22 ratings got %d: %v", len(res.Aggregate.Ratings), res.Aggregate.Ratings)
	}
}

// Same for KPIs: a stat appearing after the RawText cutoff still counts.
func TestAnalyzeBatchKPIsBeyondRawTextLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Match\n")
	for i := 0; i < 30; i++ {
		sb.WriteString("Riga senza valore utile\n")
	}
	sb.WriteString("Gol subiti: 1\n")
	text := sb.String()
	if len(text) <= rawTextLimit {
		t.Fatalf("fixture must exceed the raw text limit, got %d bytes", len(text))
	}
	eng := &dimEngine{byWidth: map[int]string{400: text}}
	b := newBatchAnalyzer(t, eng)
	res, err := b.AnalyzeBatch(context.Background(), map[string][]byte{
		SlotStats: pngBytes(t, 400, 400),
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Aggregate.Stats["golSubiti"] != 1 {
		t.Fatalf("trailing KPI lost: %v", res.Aggregate.Stats)
	}
}

func TestExtractRatingsBounds(t *testing.T) {
	got := extractRatings("Donnarumma 7.5\nTonali 11\nab 5")
	if len(got) != 1 || got[0].Player != "Donnarumma" {
		t.Fatalf("expected only Donnarumma to survive the bounds, got %v", got)
	}
}

func TestExtractMatchKPIs(t *testing.T) {
	got := extractMatchKPIs("Possesso: 58\nPrecisione passaggi: 81\nGol fatti: 3\nGol subiti: 1")
	want := map[string]int{"possesso": 58, "precisionePassaggi": 81, "golFatti": 3, "golSubiti": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}
