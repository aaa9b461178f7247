package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/renderer/rendererimpl"
	"github.com/reelcraft/newsreel/pkg/executor"
	"github.com/reelcraft/newsreel/pkg/logger"
)

type manifest struct {
	Slides []manifestSlide `yaml:"slides"`
}

type manifestSlide struct {
	Image string `yaml:"image"`
	Audio string `yaml:"audio"`
}

// defaults mirror the service's video settings so a manifest renders the
// same either way.
type envDefaults struct {
	PreviewMode       bool    `env:"VIDEO_PREVIEW_MODE" env-default:"true"`
	TransitionSeconds float64 `env:"VIDEO_TRANSITION_SECONDS" env-default:"0.5"`
	FPS               int     `env:"VIDEO_FPS" env-default:"30"`
}

func main() {
	_ = godotenv.Load()

	var defaults envDefaults
	if err := cleanenv.ReadEnv(&defaults); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	manifestPath := flag.String("f", "slides.yaml", "slide manifest to render")
	outputPath := flag.String("o", "output.mp4", "output video path")
	preview := flag.Bool("preview", defaults.PreviewMode, "render at preview resolution")
	transition := flag.Float64("transition", defaults.TransitionSeconds, "slide-in duration in seconds")
	fps := flag.Int("fps", defaults.FPS, "output frame rate")
	flag.Parse()

	slides, err := loadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	rend := rendererimpl.New(rendererimpl.Opts{
		Executor: executor.New(),
		Logger:   logger.New(logger.Opts{Env: os.Getenv("APP_ENV")}),
	})

	ctx := context.Background()
	if err := rend.CheckBinaries(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	resolution := renderer.FullResolution
	mode := "full"
	if *preview {
		resolution = renderer.PreviewResolution
		mode = "preview"
	}

	fmt.Printf("Rendering %d slides at %s (%s mode)\n", len(slides), resolution, mode)

	err = rend.Render(ctx, renderer.Request{
		Slides:            slides,
		Resolution:        resolution,
		TransitionSeconds: *transition,
		FPS:               *fps,
		OutputPath:        *outputPath,
	})
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	fmt.Println(*outputPath)
}

func loadManifest(path string) ([]domain.Slide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid yaml in %s: %w", path, err)
	}
	if len(m.Slides) == 0 {
		return nil, fmt.Errorf("%s contains no slides", path)
	}

	slides := make([]domain.Slide, len(m.Slides))
	for i, s := range m.Slides {
		if s.Image == "" || s.Audio == "" {
			return nil, fmt.Errorf("slide %d must have both image and audio", i)
		}
		slides[i] = domain.Slide{ImagePath: s.Image, AudioPath: s.Audio}
	}
	return slides, nil
}
