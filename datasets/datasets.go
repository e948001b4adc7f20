package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// This package turns a chunked driving log into a flat, randomly-indexable
// sequence of per-frame training examples: a rasterized scene image plus the
// past/future trajectory of one tracked agent (the recording vehicle or any
// other actor).
//
// The heavy lifting sits behind three seams:
//   - the cumulative frame index maps a flat example index to its owning
//     (scene, in-scene offset) pair and back (index.go);
//   - the Frenet stage rewrites future targets from raster pixel space into
//     route-relative longitudinal/lateral coordinates (frenet.go);
//   - scene extraction carves one scene into a standalone dataset by slicing
//     and rebasing the store (chunked.Store.SceneSlice, wrapped by
//     FrameDataset.SceneDataset).
//
// Notes on gomlx tensors:
//   - Examples carry contiguous float32 buffers plus shape metadata; batching
//     them into gomlx tensors is a small, well-defined step (batch.go) so the
//     core stays independent of any particular tensor API.
//
// The datasets implement this interface in order to interact with GoMLX
// training loops and batching utilities.
type Dataset interface {
	Len() int
	Item(index int) (*Example, error)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
}
