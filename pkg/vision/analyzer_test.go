package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchlens/pkg/cache"
)

type fakeEngine struct {
	initErr error
	res     Result
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeEngine) Init(ctx context.Context) error { return f.initErr }

func (f *fakeEngine) Recognize(ctx context.Context, img []byte) (Result, error) {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.res, f.err
}

func (f *fakeEngine) Close() error { return nil }

func TestAnalyzeSuccess(t *testing.T) {
	eng := &fakeEngine{res: Result{Text: "Possession: 55 - 45\nShots: 12 - 8", Confidence: 0.9}}
	a := NewAnalyzer(eng)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	rec, err := a.Analyze(context.Background(), pngBytes(t, 1000, 1000))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Type != TypeMatchStats {
		t.Fatalf("text classification should win, got %s", rec.Type)
	}
	if rec.Home["possession"] != 55 || rec.Away["shots"] != 8 {
		t.Fatalf("unexpected parse home=%v away=%v", rec.Home, rec.Away)
	}
	if rec.Simulated {
		t.Fatalf("genuine analysis must not be marked simulated")
	}
}

func TestAnalyzeUnreadyServesSimulation(t *testing.T) {
	eng := &fakeEngine{initErr: errors.New("tesseract missing")}
	a := NewAnalyzer(eng)
	_ = a.Init(context.Background())
	if a.Ready() {
		t.Fatalf("analyzer must not report ready after failed init")
	}
	rec, err := a.Analyze(context.Background(), pngBytes(t, 1600, 900))
	if err != nil {
		t.Fatalf("fallback must resolve without error, got %v", err)
	}
	if !rec.Simulated || rec.FallbackReason != FallbackEngineUnavailable {
		t.Fatalf("expected simulated engine_unavailable record, got %+v", rec)
	}
	if rec.Type != TypeFormation {
		t.Fatalf("fallback should use the geometry type, got %s", rec.Type)
	}
	if eng.calls != 0 {
		t.Fatalf("engine must not be called when unready")
	}
}

func TestAnalyzeTimeoutFallsBack(t *testing.T) {
	eng := &fakeEngine{delay: 300 * time.Millisecond, res: Result{Text: "slow"}}
	a := NewAnalyzer(eng, WithTimeout(50*time.Millisecond))
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	start := time.Now()
	rec, err := a.Analyze(context.Background(), pngBytes(t, 720, 1280))
	if err != nil {
		t.Fatalf("timeout must resolve without error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed >= eng.delay {
		t.Fatalf("analyze waited out the engine: %s", elapsed)
	}
	if !rec.Simulated || rec.FallbackReason != FallbackTimeout {
		t.Fatalf("expected simulated timeout record, got %+v", rec)
	}
	if rec.Type != TypePlayerStats {
		t.Fatalf("fallback should use the geometry type, got %s", rec.Type)
	}
}

func TestAnalyzeEngineFailurePropagates(t *testing.T) {
	eng := &fakeEngine{err: errors.New("boom")}
	a := NewAnalyzer(eng)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	rec, err := a.Analyze(context.Background(), pngBytes(t, 1000, 1000))
	if err == nil || rec != nil {
		t.Fatalf("expected the failure to propagate, got rec=%v err=%v", rec, err)
	}
}

func TestAnalyzeRecognizeUnavailableFallsBack(t *testing.T) {
	eng := &fakeEngine{err: ErrEngineUnavailable}
	a := NewAnalyzer(eng)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	rec, err := a.Analyze(context.Background(), pngBytes(t, 1000, 1000))
	if err != nil {
		t.Fatalf("unavailable engine must resolve to fallback, got %v", err)
	}
	if !rec.Simulated || rec.FallbackReason != FallbackEngineUnavailable {
		t.Fatalf("expected simulated record, got %+v", rec)
	}
}

func TestAnalyzeCachesRecords(t *testing.T) {
	eng := &fakeEngine{res: Result{Text: "Possession: 55 - 45"}}
	a := NewAnalyzer(eng, WithCache(cache.NewMemory(), time.Minute))
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	img := pngBytes(t, 1300, 1000)
	first, err := a.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if eng.calls != 1 {
		t.Fatalf("second analysis should come from cache, engine called %d times", eng.calls)
	}
	if second.Type != first.Type || second.Home["possession"] != first.Home["possession"] {
		t.Fatalf("cached record differs: %+v vs %+v", first, second)
	}
}
