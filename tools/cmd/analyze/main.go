package main

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"matchlens/pkg/log"
	"matchlens/pkg/vision"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Debug tool: analyze one screenshot from disk and dump the record.
func main() {
	p := "public/screens/sample.png"
	if len(os.Args) > 1 {
		p = os.Args[1]
	}
	img, err := os.ReadFile(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", p, err)
		os.Exit(1)
	}

	logger := log.NewLogger("debug").WithField("component", "analyze-cli")
	engine := vision.NewTesseractEngine(
		vision.DefaultEngineLanguage,
		vision.DefaultEngineWhitelist,
		vision.DefaultEngineRateLimit,
		logger,
	)
	analyzer := vision.NewAnalyzer(engine, vision.WithLogger(logger))
	if err := analyzer.Init(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "engine init failed, record will be simulated: %v\n", err)
	}
	defer analyzer.Close()

	fmt.Printf("geometry type=%s\n", vision.ClassifyGeometry(img))

	start := time.Now()
	rec, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("analyzed in %s type=%s confidence=%.2f simulated=%v\n",
		time.Since(start).Round(time.Millisecond), rec.Type, rec.Confidence, rec.Simulated)
	raw, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(raw))
}
