package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"matchlens/pkg/cache"
	"matchlens/pkg/metrics"
)

// DefaultEngineTimeout bounds a single recognition call.
const DefaultEngineTimeout = 15 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Analyzer drives one screenshot through preprocess -> recognize ->
// classify -> parse. Each invocation is single-pass: idle, preprocessing,
// recognizing, classifying, parsing, done, with a fallback edge out of
// recognizing on engine unavailability or timeout.
type Analyzer struct {
	engine  Engine
	timeout time.Duration
	gain    float64

	cache    cache.Cache
	cacheTTL time.Duration

	log   *logrus.Entry
	ready bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeout sets the recognition budget for one image.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithContrastGain overrides the preprocessing channel gain.
func WithContrastGain(gain float64) Option {
	return func(a *Analyzer) {
		if gain > 0 {
			a.gain = gain
		}
	}
}

// WithCache enables record caching keyed by the SHA-256 of the uploaded
// bytes. Simulated records are never cached.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Analyzer) { a.log = log }
}

// NewAnalyzer builds an analyzer around the given engine. Call Init before
// Analyze; an analyzer whose engine failed to initialize stays usable and
// serves simulation fallbacks.
func NewAnalyzer(engine Engine, opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:  engine,
		timeout: DefaultEngineTimeout,
		gain:    DefaultContrastGain,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init initializes the engine. The returned error is informational: Analyze
// degrades to simulated records instead of failing when Init did not
// succeed.
func (a *Analyzer) Init(ctx context.Context) error {
	if err := a.engine.Init(ctx); err != nil {
		a.ready = false
		if a.log != nil {
			a.log.WithError(err).Warn("engine init failed, serving simulation fallbacks")
		}
		return err
	}
	a.ready = true
	return nil
}

// Ready reports whether the recognition engine initialized.
func (a *Analyzer) Ready() bool { return a.ready }

// Close releases the engine.
func (a *Analyzer) Close() error { return a.engine.Close() }

// Analyze turns one screenshot into a typed record.
//
// Engine unavailable or over budget: a simulated record for the
// geometry-inferred type comes back with Simulated set and the reason
// recorded; the call resolves, it never hangs. Any other engine failure
// wraps ErrEngineFailure and is returned to the caller.
func (a *Analyzer) Analyze(ctx context.Context, img []byte) (*ParsedRecord, error) {
	rec, _, err := a.analyze(ctx, img)
	return rec, err
}

// analyze additionally returns the full recognized text. Record fields only
// carry a truncated debug copy, but the batch aggregator's regexes need every
// line the engine produced.
func (a *Analyzer) analyze(ctx context.Context, img []byte) (*ParsedRecord, string, error) {
	geomType := ClassifyGeometry(img)

	if !a.ready {
		metrics.RecordFallback(FallbackEngineUnavailable)
		rec := Simulate(geomType, FallbackEngineUnavailable)
		return rec, rec.RawText, nil
	}

	key := cacheKey(img)
	if rec, text, ok := a.cachedRecord(ctx, key); ok {
		metrics.RecordCacheHit()
		return rec, text, nil
	}

	pre := Preprocess(img, a.gain, a.log)

	start := time.Now()
	res, err := a.recognize(ctx, pre)
	metrics.RecordEngineLatency(time.Since(start))
	switch {
	case errors.Is(err, ErrEngineTimeout):
		if a.log != nil {
			a.log.WithField("type", geomType).Warn("recognition timed out, serving simulation fallback")
		}
		metrics.RecordFallback(FallbackTimeout)
		rec := Simulate(geomType, FallbackTimeout)
		return rec, rec.RawText, nil
	case errors.Is(err, ErrEngineUnavailable):
		metrics.RecordFallback(FallbackEngineUnavailable)
		rec := Simulate(geomType, FallbackEngineUnavailable)
		return rec, rec.RawText, nil
	case err != nil:
		metrics.RecordEngineFailure()
		return nil, "", err
	}

	// Text reclassification is authoritative: geometry lies for cropped or
	// resized screenshots.
	typ := geomType
	if res.Text != "" {
		if textType := ClassifyText(res.Text); textType != TypeUnknown {
			typ = textType
		}
	}

	rec := Parse(typ, res.Text)
	metrics.RecordAnalysis(string(rec.Type))
	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"type":       rec.Type,
			"confidence": rec.Confidence,
			"textLen":    len(res.Text),
		}).Info("analysis complete")
	}
	a.storeRecord(ctx, key, rec, res.Text)
	return rec, res.Text, nil
}

// recognize races the engine call against the configured budget. The
// underlying call cannot be interrupted mid-recognition; on timeout the
// pending result is abandoned, which cancels only this logical wait.
func (a *Analyzer) recognize(ctx context.Context, img []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := a.engine.Recognize(ctx, img)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, ErrEngineTimeout
		}
		return Result{}, ctx.Err()
	case o := <-ch:
		return o.res, o.err
	}
}

func cacheKey(img []byte) string {
	sum := sha256.Sum256(img)
	return "record:" + hex.EncodeToString(sum[:])
}

// cachedAnalysis is the cache payload: the record plus the full recognized
// text it was parsed from.
type cachedAnalysis struct {
	Record *ParsedRecord `json:"record"`
	Text   string        `json:"text"`
}

func (a *Analyzer) cachedRecord(ctx context.Context, key string) (*ParsedRecord, string, bool) {
	if a.cache == nil {
		return nil, "", false
	}
	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		if a.log != nil {
			a.log.WithError(err).Warn("cache get failed")
		}
		return nil, "", false
	}
	if !ok {
		return nil, "", false
	}
	var entry cachedAnalysis
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Record == nil {
		return nil, "", false
	}
	return entry.Record, entry.Text, true
}

func (a *Analyzer) storeRecord(ctx context.Context, key string, rec *ParsedRecord, text string) {
	if a.cache == nil || rec.Simulated {
		return
	}
	raw, err := json.Marshal(cachedAnalysis{Record: rec, Text: text})
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.cacheTTL); err != nil && a.log != nil {
		a.log.WithError(err).Warn("cache set failed")
	}
}
