package chunked

import (
	"errors"
	"fmt"
	"math"
)

// This package holds the in-memory representation of a recorded driving log.
// A log is a flat sequence of scenes; each scene owns a contiguous run of
// frames, and each frame references a contiguous run of agent observations and
// traffic-light-face observations via half-open index intervals:
//
//   scenes ──frame_index_interval──▶ frames ──agent_index_interval──▶ agents
//                                          └─tl_faces_index_interval─▶ tl_faces
//
// All slicing here is value-copy: a Store produced by SceneSlice never aliases
// the source, so the two can be mutated independently.

// Interval is a half-open [Start, End) index range into a sibling sequence.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of elements covered by the interval.
func (iv Interval) Len() int { return iv.End - iv.Start }

// Scene is one contiguous recorded driving segment.
type Scene struct {
	FrameIndexInterval Interval `json:"frame_index_interval"`
	Host               string   `json:"host"`
	StartTime          int64    `json:"start_time"`
	EndTime            int64    `json:"end_time"`
}

// Frame is a single timestep within a scene. EgoTranslation/EgoRotation give
// the pose of the recording vehicle in world coordinates.
type Frame struct {
	Timestamp                      int64        `json:"timestamp"`
	AgentIndexInterval             Interval     `json:"agent_index_interval"`
	TrafficLightFacesIndexInterval Interval     `json:"traffic_light_faces_index_interval"`
	EgoTranslation                 [3]float64   `json:"ego_translation"`
	EgoRotation                    [3][3]float64 `json:"ego_rotation"`
}

// EgoYaw extracts the heading angle from the frame's rotation matrix.
func (f Frame) EgoYaw() float64 {
	return math.Atan2(f.EgoRotation[1][0], f.EgoRotation[0][0])
}

// Agent is one observation of a tracked actor within a frame.
type Agent struct {
	Centroid           [2]float64 `json:"centroid"`
	Extent             [3]float32 `json:"extent"`
	Yaw                float64    `json:"yaw"`
	Velocity           [2]float32 `json:"velocity"`
	TrackID            int64      `json:"track_id"`
	LabelProbabilities []float32  `json:"label_probabilities"`
}

// TLFace is one observation of a traffic-light face within a frame.
type TLFace struct {
	FaceID         string     `json:"face_id"`
	TrafficLightID string     `json:"traffic_light_id"`
	Status         [3]float32 `json:"traffic_light_face_status"`
}

// Store is an in-memory chunked log. The four sequences are linked by the
// interval fields described in the package comment.
type Store struct {
	Path    string   `json:"-"`
	Scenes  []Scene  `json:"scenes"`
	Frames  []Frame  `json:"frames"`
	Agents  []Agent  `json:"agents"`
	TLFaces []TLFace `json:"tl_faces"`
}

// ErrNotContiguous is returned by SceneSlice when a scene's frames do not
// reference gap-free agent or traffic-light-face runs.
var ErrNotContiguous = errors.New("chunked: frame intervals are not contiguous")

// FrameSlice returns a value copy of the frames covered by iv.
func (s *Store) FrameSlice(iv Interval) []Frame {
	return copyFrames(s.Frames[iv.Start:iv.End])
}

// SceneSlice extracts a single scene into a standalone Store. Every interval
// in the returned store is rebased to start at zero, so the copy is valid
// without the source. Frames within the scene must reference contiguous agent
// and traffic-light-face runs; a gap returns ErrNotContiguous rather than a
// silently wrong slice.
func (s *Store) SceneSlice(sceneIndex int) (*Store, error) {
	if sceneIndex < 0 || sceneIndex >= len(s.Scenes) {
		return nil, fmt.Errorf("chunked: scene index %d out of range [0, %d)", sceneIndex, len(s.Scenes))
	}
	scene := s.Scenes[sceneIndex]
	frameIV := scene.FrameIndexInterval
	frames := copyFrames(s.Frames[frameIV.Start:frameIV.End])

	out := &Store{
		Scenes: []Scene{scene},
		Frames: frames,
	}
	out.Scenes[0].FrameIndexInterval = Interval{Start: 0, End: frameIV.Len()}
	if len(frames) == 0 {
		out.Agents = []Agent{}
		out.TLFaces = []TLFace{}
		return out, nil
	}

	if err := verifyContiguous(frames); err != nil {
		return nil, fmt.Errorf("scene %d: %w", sceneIndex, err)
	}

	agentStart := frames[0].AgentIndexInterval.Start
	agentEnd := frames[len(frames)-1].AgentIndexInterval.End
	out.Agents = copyAgents(s.Agents[agentStart:agentEnd])

	tlStart := frames[0].TrafficLightFacesIndexInterval.Start
	tlEnd := frames[len(frames)-1].TrafficLightFacesIndexInterval.End
	out.TLFaces = copyTLFaces(s.TLFaces[tlStart:tlEnd])

	for i := range frames {
		frames[i].AgentIndexInterval.Start -= agentStart
		frames[i].AgentIndexInterval.End -= agentStart
		frames[i].TrafficLightFacesIndexInterval.Start -= tlStart
		frames[i].TrafficLightFacesIndexInterval.End -= tlStart
	}
	return out, nil
}

// verifyContiguous checks that successive frames' agent and tl-face intervals
// meet with no gap or overlap.
func verifyContiguous(frames []Frame) error {
	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		if cur.AgentIndexInterval.Start != prev.AgentIndexInterval.End {
			return fmt.Errorf("%w: agent interval of frame %d starts at %d, previous ends at %d",
				ErrNotContiguous, i, cur.AgentIndexInterval.Start, prev.AgentIndexInterval.End)
		}
		if cur.TrafficLightFacesIndexInterval.Start != prev.TrafficLightFacesIndexInterval.End {
			return fmt.Errorf("%w: tl-face interval of frame %d starts at %d, previous ends at %d",
				ErrNotContiguous, i, cur.TrafficLightFacesIndexInterval.Start, prev.TrafficLightFacesIndexInterval.End)
		}
	}
	return nil
}

func copyFrames(src []Frame) []Frame {
	out := make([]Frame, len(src))
	copy(out, src)
	return out
}

func copyAgents(src []Agent) []Agent {
	out := make([]Agent, len(src))
	copy(out, src)
	for i := range out {
		// LabelProbabilities is the only reference field on Agent.
		out[i].LabelProbabilities = append([]float32(nil), src[i].LabelProbabilities...)
	}
	return out
}

func copyTLFaces(src []TLFace) []TLFace {
	out := make([]TLFace, len(src))
	copy(out, src)
	return out
}

// String summarizes the store contents.
func (s *Store) String() string {
	return fmt.Sprintf("chunked store %q: %d scenes, %d frames, %d agents, %d tl_faces",
		s.Path, len(s.Scenes), len(s.Frames), len(s.Agents), len(s.TLFaces))
}
