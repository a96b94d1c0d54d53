package main

import (
	"context"
	"flag"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"matchlens/pkg/config"
	applog "matchlens/pkg/log"
	"matchlens/pkg/vision"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	verbose bool
	logger  *logrus.Entry
)

// Main: scans a directory of game screenshots, analyzes each into a
// .record.json sidecar, optional watch mode for new drops.
func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.NewLogger("info").WithError(err).Fatal("config load failed")
	}
	dirFlag := flag.String("dir", cfg.WatchDir, "directory to scan for screenshots")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", cfg.WatchWorkers, "Worker pool size (default NumCPU)")
	dryRun := flag.Bool("dry-run", false, "List candidate files without analyzing")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	logger = applog.NewLogger(cfg.LogLevel).WithField("component", "watcher")

	if *dryRun {
		files := listImageFiles(*dirFlag)
		logger.Infof("dry-run: %d candidate files in %s", len(files), *dirFlag)
		for _, f := range files {
			logV("candidate %s", f)
		}
		return
	}

	engine := vision.NewTesseractEngine(cfg.EngineLanguage, cfg.EngineWhitelist, cfg.EngineRateLimit, logger)
	analyzer := vision.NewAnalyzer(engine,
		vision.WithTimeout(time.Duration(cfg.EngineTimeoutMS)*time.Millisecond),
		vision.WithContrastGain(cfg.ContrastGain),
		vision.WithLogger(logger),
	)
	if err := analyzer.Init(context.Background()); err != nil {
		logger.WithError(err).Warn("engine init failed, records will be simulated")
	}
	defer analyzer.Close()

	files := listImageFiles(*dirFlag)
	logger.Infof("scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, analyzer, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, analyzer, effectiveWorkers(*workers)); err != nil {
			logger.WithError(err).Fatal("watch failed")
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		logger.Infof(format, args...)
	}
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(dir string, analyzer *vision.Analyzer, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Infof("watching %s (debounced)", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				logger.WithError(err).Warn("watch error")
			}
		}
	}()

	go runWorkerPool(dir, analyzer, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

func isSupportedExt(name string) bool {
	// ignore generated sidecars to avoid recursive processing
	if strings.Contains(name, ".record.") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

// worker pool orchestrator
func runWorkerPool(dir string, analyzer *vision.Analyzer, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, analyzer)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile analyzes one screenshot, writes the record sidecar and
// moves the image to the processed directory. Idempotent: an existing sidecar
// means the file was already handled.
func processSingleFile(dir, name string, analyzer *vision.Analyzer) {
	recordPath := filepath.Join(dir, recordName(name))
	if _, err := os.Stat(recordPath); err == nil {
		logV("SKIP record exists %s", name)
		return
	}

	img, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		logger.WithError(err).Warnf("read failed %s", name)
		return
	}
	rec, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		logger.WithError(err).Warnf("analysis failed %s", name)
		return
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.WithError(err).Warnf("marshal failed %s", name)
		return
	}
	if err := os.WriteFile(recordPath, raw, 0o644); err != nil {
		logger.WithError(err).Warnf("write record failed %s", name)
		return
	}
	logger.WithFields(logrus.Fields{
		"file":       name,
		"type":       rec.Type,
		"confidence": rec.Confidence,
		"simulated":  rec.Simulated,
	}).Info("record written")

	if err := moveToProcessed(dir, name); err != nil {
		logger.WithError(err).Warnf("failed to move processed file %s", name)
	} else {
		logV("moved processed %s", name)
	}
}

func recordName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".record.json"
}

// moveToProcessed moves a file into <dir>/processed, downscaling oversized
// screenshots so the archive stays small. Attempts an atomic rename and falls
// back to re-encoding when the file is over budget.
func moveToProcessed(dir, name string) error {
	const maxBytes = 1_000_000
	src := filepath.Join(dir, name)
	processedDir := filepath.Join(dir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if fi.Size() <= maxBytes {
		return os.Rename(src, dst)
	}
	img, err := imaging.Open(src)
	if err != nil { // cannot decode, move as-is
		return os.Rename(src, dst)
	}
	// size scales roughly with area
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	if scale > 0.95 {
		scale = 0.95
	}
	if scale < 0.1 {
		scale = 0.1
	}
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	h := int(math.Max(1, math.Round(float64(img.Bounds().Dy())*scale)))
	img = imaging.Resize(img, w, h, imaging.Lanczos)
	if err := imaging.Save(img, dst); err != nil {
		return os.Rename(src, dst)
	}
	return os.Remove(src)
}
