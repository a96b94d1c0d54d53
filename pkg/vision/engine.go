package vision

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Defaults mirror the recognition setup tuned for the game's screenshots:
// uniform text blocks, a restricted character set, English training data.
const (
	DefaultEngineLanguage  = "eng"
	DefaultEngineWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.,:()-/% "
	DefaultEngineRateLimit = 4 // recognitions per second across all callers
)

// Result is the raw output of a recognition engine: text plus an overall
// confidence in [0,1] (0 when the engine reports none).
type Result struct {
	Text       string
	Confidence float64
}

// Engine converts image bytes to text. Implementations own a potentially
// stateful recognition worker; Recognize must be safe for concurrent use.
type Engine interface {
	// Init prepares the engine. Calling Recognize before a successful Init
	// returns ErrEngineUnavailable.
	Init(ctx context.Context) error
	Recognize(ctx context.Context, img []byte) (Result, error)
	Close() error
}

// TesseractEngine wraps a single long-lived gosseract client. The client is
// not safe for concurrent calls, so access is serialized: concurrent batch
// slots queue here but still complete independently once served.
type TesseractEngine struct {
	mu      sync.Mutex
	client  *gosseract.Client
	limiter *rate.Limiter

	lang      string
	whitelist string
	log       *logrus.Entry
}

// NewTesseractEngine builds an engine with the given language, character
// whitelist and recognitions-per-second limit. Zero values pick defaults.
func NewTesseractEngine(lang, whitelist string, perSecond float64, log *logrus.Entry) *TesseractEngine {
	if lang == "" {
		lang = DefaultEngineLanguage
	}
	if whitelist == "" {
		whitelist = DefaultEngineWhitelist
	}
	if perSecond <= 0 {
		perSecond = DefaultEngineRateLimit
	}
	return &TesseractEngine{
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		lang:      lang,
		whitelist: whitelist,
		log:       log,
	}
}

// Init creates and configures the shared client. Idempotent.
func (e *TesseractEngine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return nil
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(e.lang); err != nil {
		_ = client.Close()
		return fmt.Errorf("set language %q: %w", e.lang, err)
	}
	if err := client.SetWhitelist(e.whitelist); err != nil {
		_ = client.Close()
		return fmt.Errorf("set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		_ = client.Close()
		return fmt.Errorf("set page seg mode: %w", err)
	}
	e.client = client
	if e.log != nil {
		e.log.WithField("lang", e.lang).Info("tesseract engine initialized")
	}
	return nil
}

// Recognize runs OCR on the image bytes. The confidence is the mean word
// confidence reported by tesseract, scaled to [0,1].
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (Result, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return Result{}, ErrEngineUnavailable
	}
	if err := e.client.SetImageFromBytes(img); err != nil {
		return Result{}, fmt.Errorf("%w: set image: %v", ErrEngineFailure, err)
	}
	text, err := e.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	return Result{Text: text, Confidence: e.meanConfidence()}, nil
}

// meanConfidence averages per-word confidences; 0 when unavailable.
func (e *TesseractEngine) meanConfidence() float64 {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100
}

// Close releases the tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
