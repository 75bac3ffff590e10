package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/export"
	"github.com/study-game-engines/raytracer-hacker/pkg/renderer"
	"github.com/study-game-engines/raytracer-hacker/pkg/scene"
)

// overrides holds the command line settings applied on top of a scene config
type overrides struct {
	width, height   int
	workers         int
	subdivisions    int
	noKDTree        bool
	noReflection    bool
	noAntialiasing  bool
	noInterpolation bool
	rotate          bool
}

// apply copies every flag that was set into cfg
func (o overrides) apply(cfg *scene.Config) {
	if o.width > 0 {
		cfg.Width = o.width
	}
	if o.height > 0 {
		cfg.Height = o.height
	}
	if o.workers > 0 {
		cfg.NumWorkers = o.workers
	}
	if o.subdivisions > 0 {
		cfg.Subdivisions = o.subdivisions
	}
	if o.noKDTree {
		cfg.KDTree = false
	}
	if o.noReflection {
		cfg.Reflection = false
	}
	if o.noAntialiasing {
		cfg.Antialiasing = false
	}
	if o.noInterpolation {
		cfg.Interpolation = false
	}
	if o.rotate {
		cfg.Rotation.Enabled = true
	}
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a JSON scene config (overrides -scene)")
	sceneID := flag.String("scene", scene.DefaultSceneID, "Scene ID: 'default' or 'json:<name>' from the scenes directory")
	scenesDir := flag.String("scenes", "scenes", "Directory of JSON scene configs")
	format := flag.String("format", "png", "Output format: png, bmp or tiff")
	output := flag.String("output", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	sysinfo := flag.Bool("sysinfo", false, "Log CPU and memory details before rendering")
	help := flag.Bool("help", false, "Show help information")

	var o overrides
	flag.IntVar(&o.width, "width", 0, "Image width (0 keeps the scene value)")
	flag.IntVar(&o.height, "height", 0, "Image height (0 keeps the scene value)")
	flag.IntVar(&o.workers, "workers", 0, "Render goroutines (0 uses every logical CPU)")
	flag.IntVar(&o.subdivisions, "subdivisions", 0, "Supersampling grid size N, giving N x N samples per pixel")
	flag.BoolVar(&o.noKDTree, "no-kdtree", false, "Test every surface instead of using the KD-tree")
	flag.BoolVar(&o.noReflection, "no-reflection", false, "Disable mirror reflections")
	flag.BoolVar(&o.noAntialiasing, "no-aa", false, "Disable supersampling")
	flag.BoolVar(&o.noInterpolation, "no-interpolation", false, "Disable mesh normal smoothing")
	flag.BoolVar(&o.rotate, "rotate", false, "Enable the scene's camera rotation")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("KD-tree Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.<format>")
		return
	}

	logger := core.NewDefaultLogger()
	if *sysinfo {
		renderer.LogSystemInfo(logger)
	}

	cfg, err := loadConfig(*configPath, *scenesDir, *sceneID)
	if err != nil {
		log.Fatalf("Error loading scene: %v", err)
	}
	o.apply(&cfg)

	path := *output
	if path == "" {
		path, err = export.SnapshotPath(createOutputDir(sceneName(*configPath, *sceneID)), *format)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	if _, err := export.FormatOf(path); err != nil {
		log.Fatalf("Error: %v", err)
	}

	logger.Printf("Starting raytracer: %s (%dx%d)\n", cfg.Name, cfg.Width, cfg.Height)
	sceneObj, err := scene.New(cfg, logger)
	if err != nil {
		log.Fatalf("Error building scene: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	raytracer := sceneObj.NewRaytracer(logger)
	stats, err := raytracer.RenderPass(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Render failed: %v", err)
	}
	if stats.Cancelled {
		logger.Printf("Render interrupted after %d of %d pixels\n", stats.TotalPixels, cfg.Width*cfg.Height)
	}
	logger.Printf("Rays: %d primary, %d shadow, %d reflection (%d samples per pixel)\n",
		stats.Rays.Primary, stats.Rays.Shadow, stats.Rays.Reflection, stats.SamplesPerPixel)

	if err := export.Save(path, raytracer.Framebuffer().Snapshot()); err != nil {
		log.Fatalf("Error saving image: %v", err)
	}
	logger.Printf("Render saved as %s\n", path)
}

// loadConfig reads an explicit config file, or resolves a scene ID against the scenes directory
func loadConfig(configPath, scenesDir, sceneID string) (scene.Config, error) {
	if configPath != "" {
		return scene.LoadConfig(configPath)
	}
	return scene.ResolveConfig(scenesDir, sceneID)
}

// sceneName returns a file-system friendly name for the output directory
func sceneName(configPath, sceneID string) string {
	if configPath != "" {
		base := filepath.Base(configPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if name, ok := strings.CutPrefix(sceneID, "json:"); ok && name != "" {
		return name
	}
	return scene.DefaultSceneID
}

// createOutputDir returns the output directory for a scene, creating it if needed
func createOutputDir(name string) string {
	outputDir := filepath.Join("output", name)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Printf("Error creating output directory: %v", err)
	}
	return outputDir
}
