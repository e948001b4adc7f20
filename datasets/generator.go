package datasets

import (
	"fmt"
	"math"

	"github.com/openmotion/drivelog/chunked"
)

// egoExtent is the recording vehicle's bounding box in meters; ego rows in
// the log carry pose only.
var egoExtent = [3]float32{4.87, 1.85, 1.48}

// TrajectoryGenerator assembles samples straight from ego poses and agent
// observations. The image is a zero raster of the configured size: map and
// actor rendering belong to a full rasterizing generator, which can replace
// this one behind the Generator interface without touching the dataset.
// Trajectory targets, availability masks and the world-to-image transform are
// complete, so the generator is sufficient for trajectory-only training and
// for exercising every dataset path.
type TrajectoryGenerator struct{}

func (TrajectoryGenerator) Generate(req Request) (*Sample, error) {
	cfg := req.Config
	if req.StateIndex < 0 || req.StateIndex >= len(req.Frames) {
		return nil, fmt.Errorf("state index %d out of range [0, %d)", req.StateIndex, len(req.Frames))
	}

	pos, yaw, extent, ok := trackState(req.Frames[req.StateIndex], req.Agents, req.TrackID, cfg.FilterAgentsThreshold)
	if !ok {
		return nil, fmt.Errorf("track %d not present in frame %d", req.TrackID, req.StateIndex)
	}

	egoCenterPx := [2]float64{
		cfg.EgoCenter[0] * float64(cfg.RasterSize[0]),
		cfg.EgoCenter[1] * float64(cfg.RasterSize[1]),
	}
	worldToImage := centeredTransform(pos, yaw, egoCenterPx, cfg.PixelSize)
	imageFromWorld := func(p [2]float64) [2]float32 {
		return [2]float32{
			float32(worldToImage[0][0]*p[0] + worldToImage[0][1]*p[1] + worldToImage[0][2]),
			float32(worldToImage[1][0]*p[0] + worldToImage[1][1]*p[1] + worldToImage[1][2]),
		}
	}

	sample := &Sample{
		Image:          make([]float32, cfg.RasterSize[1]*cfg.RasterSize[0]*3),
		ImageShape:     [3]int{cfg.RasterSize[1], cfg.RasterSize[0], 3},
		WorldToImage:   worldToImage,
		EgoCenterImage: egoCenterPx,
		Centroid:       pos,
		Yaw:            yaw,
		Extent:         extent,
		TrackID:        req.TrackID,
	}

	sample.TargetPositions = make([][2]float32, cfg.FutureNumFrames)
	sample.TargetYaws = make([]float32, cfg.FutureNumFrames)
	sample.TargetAvailabilities = make([]float32, cfg.FutureNumFrames)
	for i := 0; i < cfg.FutureNumFrames; i++ {
		fi := req.StateIndex + (i+1)*cfg.FutureStepSize
		if fi >= len(req.Frames) {
			continue
		}
		p, y, _, present := trackState(req.Frames[fi], req.Agents, req.TrackID, cfg.FilterAgentsThreshold)
		if !present {
			continue
		}
		sample.TargetPositions[i] = imageFromWorld(p)
		sample.TargetYaws[i] = float32(y - yaw)
		sample.TargetAvailabilities[i] = 1
	}

	// History runs backwards, current frame first.
	steps := cfg.HistoryNumFrames + 1
	sample.HistoryPositions = make([][2]float32, steps)
	sample.HistoryYaws = make([]float32, steps)
	sample.HistoryAvailabilities = make([]float32, steps)
	for i := 0; i < steps; i++ {
		fi := req.StateIndex - i*cfg.HistoryStepSize
		if fi < 0 {
			continue
		}
		p, y, _, present := trackState(req.Frames[fi], req.Agents, req.TrackID, cfg.FilterAgentsThreshold)
		if !present {
			continue
		}
		sample.HistoryPositions[i] = imageFromWorld(p)
		sample.HistoryYaws[i] = float32(y - yaw)
		sample.HistoryAvailabilities[i] = 1
	}

	if req.Perturbation != nil {
		if err := req.Perturbation.Apply(sample); err != nil {
			return nil, fmt.Errorf("perturbation: %w", err)
		}
	}
	return sample, nil
}

// trackState returns the world position, heading and extent of a track in one
// frame. The ego is always present; other agents must appear in the frame's
// agent window with a label probability at or above threshold.
func trackState(frame chunked.Frame, agents []chunked.Agent, trackID int64, threshold float64) (pos [2]float64, yaw float64, extent [3]float32, ok bool) {
	if trackID == EgoTrackID {
		return [2]float64{frame.EgoTranslation[0], frame.EgoTranslation[1]}, frame.EgoYaw(), egoExtent, true
	}
	iv := frame.AgentIndexInterval
	for _, a := range agents[iv.Start:iv.End] {
		if a.TrackID != trackID {
			continue
		}
		if maxProbability(a.LabelProbabilities) < threshold {
			continue
		}
		return a.Centroid, a.Yaw, a.Extent, true
	}
	return pos, 0, extent, false
}

func maxProbability(probs []float32) float64 {
	best := 0.0
	for _, p := range probs {
		if float64(p) > best {
			best = float64(p)
		}
	}
	return best
}

// centeredTransform builds the 3x3 affine mapping world coordinates to raster
// pixels such that pos lands on centerPx and heading points along +x in the
// image:
//
//	M = T(centerPx) * S(1/pixel) * R(-heading) * T(-pos)
func centeredTransform(pos [2]float64, heading float64, centerPx [2]float64, pixelSize [2]float64) [3][3]float64 {
	cos, sin := math.Cos(heading), math.Sin(heading)
	sx, sy := 1/pixelSize[0], 1/pixelSize[1]

	var m [3][3]float64
	m[0][0] = sx * cos
	m[0][1] = sx * sin
	m[1][0] = -sy * sin
	m[1][1] = sy * cos
	m[0][2] = centerPx[0] - m[0][0]*pos[0] - m[0][1]*pos[1]
	m[1][2] = centerPx[1] - m[1][0]*pos[0] - m[1][1]*pos[1]
	m[2][2] = 1
	return m
}
