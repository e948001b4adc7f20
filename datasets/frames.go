package datasets

import (
	"fmt"

	"github.com/openmotion/drivelog/chunked"
)

// FrameDataset presents a chunked driving log as a flat sequence of
// per-frame training examples. All lookup methods are pure with respect to
// dataset state and safe for concurrent readers; the only mutating calls are
// construction and the sequential Yield/Restart pair used by training loops.
type FrameDataset struct {
	// BatchSize used by Yield.
	BatchSize int

	cfg          Config
	store        *chunked.Store
	rasterizer   Rasterizer
	generator    Generator
	perturbation Perturbation

	// cumulative is an immutable snapshot of the store's scene sizes taken at
	// construction. Rebuild the dataset if the store's composition changes.
	cumulative cumulativeIndex

	yieldPos int
}

// New builds a FrameDataset over store. cfg is validated (with defaults
// applied) before use. rasterizer may be nil only when Frenet target
// conversion is disabled; perturbation may always be nil.
func New(cfg Config, store *chunked.Store, rasterizer Rasterizer, gen Generator, perturbation Perturbation) (*FrameDataset, error) {
	if store == nil {
		return nil, fmt.Errorf("datasets: store is nil")
	}
	if gen == nil {
		return nil, fmt.Errorf("datasets: generator is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("datasets: %w", err)
	}
	if cfg.frenetEnabled() && rasterizer == nil {
		return nil, fmt.Errorf("datasets: route-frenet targets enabled but rasterizer is nil")
	}
	return &FrameDataset{
		BatchSize:    32,
		cfg:          cfg,
		store:        store,
		rasterizer:   rasterizer,
		generator:    gen,
		perturbation: perturbation,
		cumulative:   newCumulativeIndex(store.Scenes),
	}, nil
}

// Len returns the number of frames across all scenes, which is the number of
// examples the dataset can produce.
func (d *FrameDataset) Len() int {
	return len(d.store.Frames)
}

// SceneCount returns the number of scenes in the backing store.
func (d *FrameDataset) SceneCount() int {
	return len(d.store.Scenes)
}

// GetFrame samples one example: the frame at stateIndex within scene
// sceneIndex, tracking trackID (EgoTrackID for the recording vehicle). The
// image is repacked channel-first, trajectory arrays are float32, and future
// targets are rewritten into route-relative Frenet coordinates when enabled.
func (d *FrameDataset) GetFrame(sceneIndex, stateIndex int, trackID int64) (*Example, error) {
	if sceneIndex < 0 || sceneIndex >= len(d.store.Scenes) {
		return nil, fmt.Errorf("datasets: scene index %d out of range [0, %d)", sceneIndex, len(d.store.Scenes))
	}
	frameIV := d.store.Scenes[sceneIndex].FrameIndexInterval
	frames := d.store.Frames[frameIV.Start:frameIV.End]
	if stateIndex < 0 || stateIndex >= len(frames) {
		return nil, fmt.Errorf("datasets: state index %d out of range [0, %d) in scene %d", stateIndex, len(frames), sceneIndex)
	}
	if trackID < 0 {
		trackID = EgoTrackID
	}

	sample, err := d.generator.Generate(Request{
		StateIndex:   stateIndex,
		Frames:       frames,
		Agents:       d.store.Agents,
		TLFaces:      d.store.TLFaces,
		TrackID:      trackID,
		Config:       d.cfg,
		Rasterizer:   d.rasterizer,
		Perturbation: d.perturbation,
	})
	if err != nil {
		return nil, fmt.Errorf("datasets: sample scene %d state %d: %w", sceneIndex, stateIndex, err)
	}

	image, shape := transposeHWC(sample.Image, sample.ImageShape)
	ex := &Example{
		Image:                 image,
		ImageShape:            shape,
		TargetPositions:       append([][2]float32(nil), sample.TargetPositions...),
		TargetYaws:            append([]float32(nil), sample.TargetYaws...),
		TargetAvailabilities:  append([]float32(nil), sample.TargetAvailabilities...),
		HistoryPositions:      append([][2]float32(nil), sample.HistoryPositions...),
		HistoryYaws:           append([]float32(nil), sample.HistoryYaws...),
		HistoryAvailabilities: append([]float32(nil), sample.HistoryAvailabilities...),
		WorldToImage:          sample.WorldToImage,
		TrackID:               trackID,
		Timestamp:             frames[stateIndex].Timestamp,
		Centroid:              sample.Centroid,
		Yaw:                   sample.Yaw,
		Extent:                sample.Extent,
	}

	if d.cfg.frenetEnabled() {
		err := frenetTargets(ex.TargetPositions, ex.TargetYaws, sample.WorldToImage, sample.EgoCenterImage, d.rasterizer)
		if err != nil {
			return nil, fmt.Errorf("datasets: scene %d state %d: %w", sceneIndex, stateIndex, err)
		}
	}
	return ex, nil
}

// Item samples the ego example at a flat frame index. Negative indices count
// from the end.
func (d *FrameDataset) Item(index int) (*Example, error) {
	sceneIndex, stateIndex, err := d.cumulative.Resolve(index)
	if err != nil {
		return nil, err
	}
	return d.GetFrame(sceneIndex, stateIndex, EgoTrackID)
}

// SceneDataset extracts one scene into an independent dataset. The new
// dataset shares this one's configuration, rasterizer, generator and
// perturbation but owns a private rebased copy of the scene's records, so
// mutating either store leaves the other intact.
func (d *FrameDataset) SceneDataset(sceneIndex int) (*FrameDataset, error) {
	sub, err := d.store.SceneSlice(sceneIndex)
	if err != nil {
		return nil, fmt.Errorf("datasets: %w", err)
	}
	return New(d.cfg, sub, d.rasterizer, d.generator, d.perturbation)
}

// SceneIndices returns the contiguous flat indices covering a scene, usable
// directly with Item.
func (d *FrameDataset) SceneIndices(sceneIndex int) ([]int, error) {
	if sceneIndex < 0 || sceneIndex >= len(d.store.Scenes) {
		return nil, fmt.Errorf("datasets: scene index %d out of range [0, %d)", sceneIndex, len(d.store.Scenes))
	}
	iv := d.store.Scenes[sceneIndex].FrameIndexInterval
	out := make([]int, 0, iv.Len())
	for i := iv.Start; i < iv.End; i++ {
		out = append(out, i)
	}
	return out, nil
}

// FrameIndices returns the flat indices for one frame. The dataset iterates
// over frames, so this is the single-element slice (frameIndex,); it stays a
// slice for symmetry with SceneIndices.
func (d *FrameDataset) FrameIndices(frameIndex int) ([]int, error) {
	if frameIndex < 0 || frameIndex >= d.Len() {
		return nil, fmt.Errorf("datasets: frame index %d out of range [0, %d)", frameIndex, d.Len())
	}
	return []int{frameIndex}, nil
}

// String delegates to the backing store.
func (d *FrameDataset) String() string {
	return d.store.String()
}
