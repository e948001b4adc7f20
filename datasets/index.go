package datasets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/openmotion/drivelog/chunked"
)

// ErrIndexRange is returned when a flat frame index (or its negative form)
// falls outside the dataset.
var ErrIndexRange = errors.New("datasets: index out of range")

// cumulativeIndex maps flat frame indices to scenes. Entry i is one past the
// last flat index of scene i, so the array is monotonically non-decreasing
// and its final entry is the total frame count. It is built once at dataset
// construction and never mutated, which makes Resolve safe for any number of
// concurrent readers.
type cumulativeIndex []int

func newCumulativeIndex(scenes []chunked.Scene) cumulativeIndex {
	c := make(cumulativeIndex, len(scenes))
	for i, s := range scenes {
		c[i] = s.FrameIndexInterval.End
	}
	return c
}

// Len returns the total number of frames across all scenes.
func (c cumulativeIndex) Len() int {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1]
}

// Resolve maps a flat frame index to its owning scene and in-scene offset.
// Negative indices count from the end, Python style. An index exactly on a
// scene boundary belongs to the following scene's first frame.
func (c cumulativeIndex) Resolve(index int) (sceneIndex, stateIndex int, err error) {
	n := c.Len()
	if index < 0 {
		if -index > n {
			return 0, 0, fmt.Errorf("%w: %d with length %d", ErrIndexRange, index, n)
		}
		index += n
	}
	if index >= n {
		return 0, 0, fmt.Errorf("%w: %d with length %d", ErrIndexRange, index, n)
	}

	// Right bisection: the smallest scene whose one-past-end exceeds index.
	// Empty scenes (equal neighboring entries) are skipped.
	sceneIndex = sort.Search(len(c), func(i int) bool { return c[i] > index })
	if sceneIndex == 0 {
		stateIndex = index
	} else {
		stateIndex = index - c[sceneIndex-1]
	}
	return sceneIndex, stateIndex, nil
}

// Flat reconstructs the flat index of (sceneIndex, stateIndex). It is the
// inverse of Resolve for valid pairs.
func (c cumulativeIndex) Flat(sceneIndex, stateIndex int) int {
	if sceneIndex == 0 {
		return stateIndex
	}
	return c[sceneIndex-1] + stateIndex
}
