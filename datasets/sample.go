package datasets

import (
	"github.com/openmotion/drivelog/chunked"
)

// EgoTrackID is the sentinel track id marking the recording vehicle. Examples
// always carry a concrete integer track id so downstream numeric consumers
// never see a missing field.
const EgoTrackID int64 = -1

// Sample is the raw output of a Generator for one (scene window, offset,
// track) query: the rendered image in channel-last layout plus trajectory
// targets in raster pixel space. Samples are created fresh per call and are
// not retained by the dataset.
type Sample struct {
	// Image is a flat H*W*C float32 buffer; ImageShape is (H, W, C).
	Image      []float32
	ImageShape [3]int

	// TargetPositions/TargetYaws hold FutureNumFrames steps; yaws are relative
	// to the tracked agent's current heading. TargetAvailabilities is 1 where
	// the step is observed and 0 where it is padding.
	TargetPositions      [][2]float32
	TargetYaws           []float32
	TargetAvailabilities []float32

	// History runs backwards from the current frame, current frame first.
	HistoryPositions      [][2]float32
	HistoryYaws           []float32
	HistoryAvailabilities []float32

	// WorldToImage is the 3x3 affine mapping world coordinates to raster
	// pixels for this sample.
	WorldToImage [3][3]float64

	// EgoCenterImage is the tracked agent's current position in raster pixels.
	EgoCenterImage [2]float64

	Centroid [2]float64
	Yaw      float64
	Extent   [3]float32
	TrackID  int64
}

// Example is what FrameDataset hands to a training loop: the sample with the
// image transposed to channel-first layout, targets optionally rewritten into
// route-relative Frenet coordinates, and the frame timestamp resolved.
type Example struct {
	// Image is a flat C*H*W float32 buffer; ImageShape is (C, H, W).
	Image      []float32
	ImageShape [3]int

	TargetPositions      [][2]float32
	TargetYaws           []float32
	TargetAvailabilities []float32

	HistoryPositions      [][2]float32
	HistoryYaws           []float32
	HistoryAvailabilities []float32

	WorldToImage [3][3]float64
	TrackID      int64
	Timestamp    int64
	Centroid     [2]float64
	Yaw          float64
	Extent       [3]float32
}

// Request carries one sample query plus the dataset-owned collaborators the
// generator may need. The dataset builds the constant parts once so each
// lookup only fills in the indices.
type Request struct {
	// StateIndex is the frame offset within Frames.
	StateIndex int

	// Frames is the owning scene's frame window; Agents and TLFaces are the
	// store-wide sequences the frames' intervals point into.
	Frames  []chunked.Frame
	Agents  []chunked.Agent
	TLFaces []chunked.TLFace

	// TrackID selects the agent to sample, EgoTrackID for the recording
	// vehicle.
	TrackID int64

	Config       Config
	Rasterizer   Rasterizer
	Perturbation Perturbation
}

// Generator assembles a Sample from raw log records. Implementations must be
// deterministic given a fixed perturbation state and safe for concurrent use.
type Generator interface {
	Generate(req Request) (*Sample, error)
}

// Rasterizer is the route-geometry collaborator. RouteFrenet converts a world
// position and heading into route-relative coordinates: s is distance along
// the reference path, d the signed perpendicular offset from it, and rel the
// heading relative to the path tangent. Convergence failures are returned as
// errors and propagate to the caller unchanged.
type Rasterizer interface {
	RouteFrenet(x, y, heading float64) (s, d, rel float64, err error)
}

// Perturbation optionally alters a sample's trajectories before it is
// returned. The dataset passes it through to the generator untouched.
type Perturbation interface {
	Apply(*Sample) error
}

// StraightRoute treats the reference path as the world x-axis: s is x, d is
// y, and the relative heading is the heading itself. Useful for straight
// segments and as the identity-preserving conversion in tests.
type StraightRoute struct{}

func (StraightRoute) RouteFrenet(x, y, heading float64) (float64, float64, float64, error) {
	return x, y, heading, nil
}

// transposeHWC repacks a channel-last flat buffer into channel-first order,
// returning the new buffer and its (C, H, W) shape.
func transposeHWC(src []float32, shape [3]int) ([]float32, [3]int) {
	h, w, c := shape[0], shape[1], shape[2]
	out := make([]float32, len(src))
	for ch := 0; ch < c; ch++ {
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				out[ch*h*w+row*w+col] = src[row*w*c+col*c+ch]
			}
		}
	}
	return out, [3]int{c, h, w}
}
