package datasets

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// ExampleBatchFlat stores a batch of examples in flat contiguous buffers.
// Images keep their channel-first layout; targets interleave (longitudinal,
// lateral) or (x, y) pairs per future step.
type ExampleBatchFlat struct {
	Images         []float32
	Targets        []float32
	Availabilities []float32

	BatchSize  int
	ImageShape [3]int // (C, H, W), identical across the batch
	FutureLen  int
}

// MakeExampleBatch flattens examples into contiguous buffers. All examples
// must share image shape and future length.
func MakeExampleBatch(examples []*Example) (*ExampleBatchFlat, error) {
	if len(examples) == 0 {
		return &ExampleBatchFlat{}, nil
	}

	shape := examples[0].ImageShape
	futureLen := len(examples[0].TargetPositions)
	imageLen := shape[0] * shape[1] * shape[2]

	b := &ExampleBatchFlat{
		Images:         make([]float32, len(examples)*imageLen),
		Targets:        make([]float32, len(examples)*futureLen*2),
		Availabilities: make([]float32, len(examples)*futureLen),
		BatchSize:      len(examples),
		ImageShape:     shape,
		FutureLen:      futureLen,
	}
	for i, ex := range examples {
		if ex.ImageShape != shape {
			return nil, fmt.Errorf("inconsistent image shape at example %d: expected %v, got %v", i, shape, ex.ImageShape)
		}
		if len(ex.TargetPositions) != futureLen {
			return nil, fmt.Errorf("inconsistent future length at example %d: expected %d, got %d", i, futureLen, len(ex.TargetPositions))
		}
		copy(b.Images[i*imageLen:], ex.Image)
		for j, p := range ex.TargetPositions {
			b.Targets[(i*futureLen+j)*2] = p[0]
			b.Targets[(i*futureLen+j)*2+1] = p[1]
		}
		copy(b.Availabilities[i*futureLen:], ex.TargetAvailabilities)
	}
	return b, nil
}

// ToGomlxTensors converts the batch into gomlx tensors: images shaped
// [batch, C, H, W] and targets shaped [batch, future, 2].
func (b *ExampleBatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	// handle empty batch gracefully
	if b.BatchSize == 0 || b.FutureLen == 0 {
		emptyImages := make([][][][]float32, 0)
		emptyTargets := make([][][]float32, 0)
		return tensors.FromAnyValue(emptyImages), tensors.FromAnyValue(emptyTargets), nil
	}

	c, h, w := b.ImageShape[0], b.ImageShape[1], b.ImageShape[2]
	images := make([][][][]float32, b.BatchSize)
	idx := 0
	for i := range images {
		images[i] = make([][][]float32, c)
		for ch := 0; ch < c; ch++ {
			images[i][ch] = make([][]float32, h)
			for row := 0; row < h; row++ {
				images[i][ch][row] = b.Images[idx : idx+w]
				idx += w
			}
		}
	}

	targets := make([][][]float32, b.BatchSize)
	idx = 0
	for i := range targets {
		targets[i] = make([][]float32, b.FutureLen)
		for j := 0; j < b.FutureLen; j++ {
			targets[i][j] = b.Targets[idx : idx+2]
			idx += 2
		}
	}

	return tensors.FromAnyValue(images), tensors.FromAnyValue(targets), nil
}

// Yield returns the next batch of ego examples for the gomlx Dataset
// interface, advancing a cursor through the flat frame sequence. io.EOF marks
// the end of the epoch. Yield and Restart mutate the cursor and must not be
// called concurrently with each other; the lookup methods stay read-only.
func (d *FrameDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	n := d.Len()
	if d.yieldPos >= n {
		return nil, nil, nil, io.EOF
	}
	end := d.yieldPos + d.BatchSize
	if end > n {
		end = n
	}
	examples := make([]*Example, 0, end-d.yieldPos)
	for i := d.yieldPos; i < end; i++ {
		ex, err := d.Item(i)
		if err != nil {
			return nil, nil, nil, err
		}
		examples = append(examples, ex)
	}
	d.yieldPos = end

	batch, err := MakeExampleBatch(examples)
	if err != nil {
		return nil, nil, nil, err
	}
	images, targets, err := batch.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{images}, []*tensors.Tensor{targets}, nil
}

// Restart resets the dataset for a new epoch.
func (d *FrameDataset) Restart() error {
	d.yieldPos = 0
	return nil
}

// Name returns the name of the dataset.
func (d *FrameDataset) Name() string {
	return "FrameDataset"
}
