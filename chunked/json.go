package chunked

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads a store serialized by WriteJSON. This is the lightweight
// interchange format used by the example and CLI tooling; production logs
// normally arrive through whatever loader produced the Store in memory.
func LoadJSON(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chunked: read %s: %w", path, err)
	}
	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("chunked: parse %s: %w", path, err)
	}
	s.Path = path
	if err := s.validateIntervals(); err != nil {
		return nil, fmt.Errorf("chunked: %s: %w", path, err)
	}
	logger.Debug().
		Str("path", path).
		Int("scenes", len(s.Scenes)).
		Int("frames", len(s.Frames)).
		Int("agents", len(s.Agents)).
		Int("tl_faces", len(s.TLFaces)).
		Msg("loaded store")
	return &s, nil
}

// WriteJSON serializes the store to path.
func (s *Store) WriteJSON(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("chunked: marshal store: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("chunked: write %s: %w", path, err)
	}
	return nil
}

// validateIntervals rejects stores whose interval references fall outside
// their child sequences. Contiguity is not required here, only bounds.
func (s *Store) validateIntervals() error {
	for i, sc := range s.Scenes {
		if err := checkInterval(sc.FrameIndexInterval, len(s.Frames)); err != nil {
			return fmt.Errorf("scene %d frame interval: %w", i, err)
		}
	}
	for i, fr := range s.Frames {
		if err := checkInterval(fr.AgentIndexInterval, len(s.Agents)); err != nil {
			return fmt.Errorf("frame %d agent interval: %w", i, err)
		}
		if err := checkInterval(fr.TrafficLightFacesIndexInterval, len(s.TLFaces)); err != nil {
			return fmt.Errorf("frame %d tl-face interval: %w", i, err)
		}
	}
	return nil
}

func checkInterval(iv Interval, n int) error {
	if iv.Start < 0 || iv.End < iv.Start || iv.End > n {
		return fmt.Errorf("[%d, %d) invalid for sequence of length %d", iv.Start, iv.End, n)
	}
	return nil
}
