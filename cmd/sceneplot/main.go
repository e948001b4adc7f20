package main

// sceneplot renders the sampled future trajectories of one scene to a PNG.
// Each frame in the scene contributes one polyline: either raster pixel
// targets or route-relative Frenet targets (longitudinal on x, lateral on y),
// depending on --frenet.
//
// Usage:
//
//	sceneplot --store log.json --scene 0 --out scene0.png
//	sceneplot --store log.json --config config.toml --frenet=false --out raw.png

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/openmotion/drivelog/chunked"
	"github.com/openmotion/drivelog/datasets"
)

func main() {
	var (
		storePath  = flag.String("store", "", "path to a JSON store")
		configPath = flag.String("config", "", "optional TOML config (defaults apply when omitted)")
		sceneIndex = flag.Int("scene", 0, "scene to plot")
		outPath    = flag.String("out", "scene.png", "output PNG path")
		frenet     = flag.Bool("frenet", true, "plot route-relative Frenet targets instead of raster pixels")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if !*verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}
	chunked.SetLogger(logger)

	if *storePath == "" {
		logger.Fatal().Msg("--store is required")
	}
	store, err := chunked.LoadJSON(*storePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load store")
	}
	logger.Info().Msg(store.String())

	var cfg datasets.Config
	if *configPath != "" {
		cfg, err = datasets.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load config")
		}
	}
	cfg.RouteFrenetTargets = frenet

	ds, err := datasets.New(cfg, store, datasets.StraightRoute{}, datasets.TrajectoryGenerator{}, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("build dataset")
	}

	indices, err := ds.SceneIndices(*sceneIndex)
	if err != nil {
		logger.Fatal().Err(err).Msg("scene indices")
	}

	p := plot.New()
	p.Title.Text = "scene targets"
	if *frenet {
		p.X.Label.Text = "longitudinal s (m)"
		p.Y.Label.Text = "lateral d (m)"
	} else {
		p.X.Label.Text = "image x (px)"
		p.Y.Label.Text = "image y (px)"
	}

	plotted := 0
	for _, index := range indices {
		ex, err := ds.Item(index)
		if err != nil {
			logger.Fatal().Err(err).Int("index", index).Msg("sample frame")
		}
		pts := make(plotter.XYs, 0, len(ex.TargetPositions))
		for i, pos := range ex.TargetPositions {
			if ex.TargetAvailabilities[i] == 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(pos[0]), Y: float64(pos[1])})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			logger.Fatal().Err(err).Msg("build line")
		}
		p.Add(line)
		plotted++
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *outPath); err != nil {
		logger.Fatal().Err(err).Msg("save plot")
	}
	logger.Info().Int("frames", plotted).Str("out", *outPath).Msg("wrote scene plot")
}
