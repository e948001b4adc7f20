package chunked

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// testStore builds a two-scene store (3 and 2 frames) with contiguous agent
// and tl-face intervals: frame i owns agents [2i, 2i+2) and tl-face [i, i+1).
func testStore(t *testing.T) *Store {
	t.Helper()

	s := &Store{
		Scenes: []Scene{
			{FrameIndexInterval: Interval{Start: 0, End: 3}, Host: "av-01", StartTime: 1000, EndTime: 1002},
			{FrameIndexInterval: Interval{Start: 3, End: 5}, Host: "av-01", StartTime: 2000, EndTime: 2001},
		},
	}
	for i := 0; i < 5; i++ {
		s.Frames = append(s.Frames, Frame{
			Timestamp:                      int64(1000 + i),
			AgentIndexInterval:             Interval{Start: 2 * i, End: 2*i + 2},
			TrafficLightFacesIndexInterval: Interval{Start: i, End: i + 1},
			EgoTranslation:                 [3]float64{float64(i), float64(2 * i), 0},
			EgoRotation:                    [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		})
	}
	for i := 0; i < 10; i++ {
		s.Agents = append(s.Agents, Agent{
			Centroid:           [2]float64{float64(i), float64(i)},
			TrackID:            int64(100 + i),
			LabelProbabilities: []float32{0.9},
		})
	}
	for i := 0; i < 5; i++ {
		s.TLFaces = append(s.TLFaces, TLFace{FaceID: "face", TrafficLightID: "tl", Status: [3]float32{1, 0, 0}})
	}
	return s
}

func TestSceneSliceRebasesIntervals(t *testing.T) {
	s := testStore(t)

	sub, err := s.SceneSlice(1)
	if err != nil {
		t.Fatalf("SceneSlice(1) failed: %v", err)
	}

	if got := sub.Scenes[0].FrameIndexInterval; got != (Interval{Start: 0, End: 2}) {
		t.Fatalf("scene interval not rebased: %+v", got)
	}
	if len(sub.Frames) != 2 || len(sub.Agents) != 4 || len(sub.TLFaces) != 2 {
		t.Fatalf("unexpected slice sizes: frames=%d agents=%d tl_faces=%d",
			len(sub.Frames), len(sub.Agents), len(sub.TLFaces))
	}

	// Scene 1's frames are global frames 3 and 4, owning agents [6, 10) and
	// tl-faces [3, 5); rebased they must start at zero and stay contiguous.
	wantAgent := []Interval{{Start: 0, End: 2}, {Start: 2, End: 4}}
	wantTL := []Interval{{Start: 0, End: 1}, {Start: 1, End: 2}}
	for i, fr := range sub.Frames {
		if fr.AgentIndexInterval != wantAgent[i] {
			t.Fatalf("frame %d agent interval = %+v, want %+v", i, fr.AgentIndexInterval, wantAgent[i])
		}
		if fr.TrafficLightFacesIndexInterval != wantTL[i] {
			t.Fatalf("frame %d tl interval = %+v, want %+v", i, fr.TrafficLightFacesIndexInterval, wantTL[i])
		}
	}

	if sub.Agents[0].TrackID != s.Agents[6].TrackID {
		t.Fatalf("agent slice starts at track %d, want %d", sub.Agents[0].TrackID, s.Agents[6].TrackID)
	}
	if sub.Frames[0].Timestamp != 1003 {
		t.Fatalf("frame timestamps not carried over: %d", sub.Frames[0].Timestamp)
	}
}

func TestSceneSliceCopiesDoNotAlias(t *testing.T) {
	s := testStore(t)

	sub, err := s.SceneSlice(0)
	if err != nil {
		t.Fatalf("SceneSlice(0) failed: %v", err)
	}

	sub.Frames[0].Timestamp = -1
	sub.Agents[0].LabelProbabilities[0] = -1
	sub.TLFaces[0].FaceID = "changed"

	if s.Frames[0].Timestamp == -1 {
		t.Fatalf("frame mutation leaked into source store")
	}
	if s.Agents[0].LabelProbabilities[0] == -1 {
		t.Fatalf("label probability mutation leaked into source store")
	}
	if s.TLFaces[0].FaceID == "changed" {
		t.Fatalf("tl-face mutation leaked into source store")
	}
}

func TestSceneSliceRejectsGaps(t *testing.T) {
	s := testStore(t)
	// Open a gap between frame 0 and frame 1 of scene 0.
	s.Frames[1].AgentIndexInterval = Interval{Start: 3, End: 4}

	_, err := s.SceneSlice(0)
	if !errors.Is(err, ErrNotContiguous) {
		t.Fatalf("expected ErrNotContiguous, got %v", err)
	}

	// Scene 1 is untouched and must still slice cleanly.
	if _, err := s.SceneSlice(1); err != nil {
		t.Fatalf("SceneSlice(1) failed on untouched scene: %v", err)
	}
}

func TestSceneSliceOutOfRange(t *testing.T) {
	s := testStore(t)
	for _, idx := range []int{-1, 2, 100} {
		if _, err := s.SceneSlice(idx); err == nil {
			t.Fatalf("SceneSlice(%d) succeeded, want error", idx)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := testStore(t)
	path := filepath.Join(t.TempDir(), "store.json")

	if err := s.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	if diff := cmp.Diff(s, loaded, cmpopts.IgnoreFields(Store{}, "Path")); diff != "" {
		t.Fatalf("store changed across JSON round trip (-want +got):\n%s", diff)
	}
	if loaded.Path != path {
		t.Fatalf("loaded store path = %q, want %q", loaded.Path, path)
	}
}

func TestLoadJSONRejectsBadIntervals(t *testing.T) {
	s := testStore(t)
	s.Frames[4].AgentIndexInterval.End = 99
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := s.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected interval validation error, got nil")
	}
}

func TestStoreString(t *testing.T) {
	s := testStore(t)
	got := s.String()
	want := `chunked store "": 2 scenes, 5 frames, 10 agents, 5 tl_faces`
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
