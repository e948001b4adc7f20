package main

// Example command that builds a tiny synthetic store, wraps it in a
// FrameDataset and walks the lookup surface: flat indexing, negative
// indexing, scene extraction, and batch conversion to gomlx tensors.
//
// Usage:
//   go run ./example

import (
	"fmt"
	"log"

	"github.com/openmotion/drivelog/chunked"
	"github.com/openmotion/drivelog/datasets"
)

func main() {
	store := syntheticStore()

	cfg := datasets.Config{
		RasterSize:       [2]int{64, 64},
		PixelSize:        [2]float64{0.5, 0.5},
		EgoCenter:        [2]float64{0.25, 0.5},
		HistoryNumFrames: 2,
		FutureNumFrames:  4,
	}
	ds, err := datasets.New(cfg, store, datasets.StraightRoute{}, datasets.TrajectoryGenerator{}, nil)
	if err != nil {
		log.Fatalf("failed to build dataset: %v", err)
	}
	fmt.Println(ds)
	fmt.Printf("Total frames available: %d\n", ds.Len())

	ex, err := ds.Item(0)
	if err != nil {
		log.Fatalf("failed to sample item 0: %v", err)
	}
	fmt.Printf("item 0: image %v, %d future targets, timestamp %d\n",
		ex.ImageShape, len(ex.TargetPositions), ex.Timestamp)

	last, err := ds.Item(-1)
	if err != nil {
		log.Fatalf("failed to sample item -1: %v", err)
	}
	fmt.Printf("item -1: timestamp %d\n", last.Timestamp)

	sub, err := ds.SceneDataset(1)
	if err != nil {
		log.Fatalf("failed to extract scene 1: %v", err)
	}
	fmt.Printf("scene 1 extracted: %d frames standalone\n", sub.Len())

	// One batch through the gomlx bridge.
	ds.BatchSize = 4
	_, inputs, labels, err := ds.Yield()
	if err != nil {
		log.Fatalf("failed to yield a batch: %v", err)
	}
	fmt.Printf("yielded %d input and %d label tensor(s)\n", len(inputs), len(labels))
}

// syntheticStore lays out two short scenes with the ego driving a straight
// line at 1 m per frame.
func syntheticStore() *chunked.Store {
	s := &chunked.Store{
		Scenes: []chunked.Scene{
			{FrameIndexInterval: chunked.Interval{Start: 0, End: 8}, Host: "synthetic"},
			{FrameIndexInterval: chunked.Interval{Start: 8, End: 12}, Host: "synthetic"},
		},
	}
	for i := 0; i < 12; i++ {
		s.Frames = append(s.Frames, chunked.Frame{
			Timestamp:      int64(i) * 100_000_000,
			EgoTranslation: [3]float64{float64(i), 0, 0},
			EgoRotation:    [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		})
	}
	return s
}
