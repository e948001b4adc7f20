package datasets

import "testing"

func flatExample(shape [3]int, targets [][2]float32) *Example {
	n := shape[0] * shape[1] * shape[2]
	avail := make([]float32, len(targets))
	for i := range avail {
		avail[i] = 1
	}
	return &Example{
		Image:                make([]float32, n),
		ImageShape:           shape,
		TargetPositions:      targets,
		TargetYaws:           make([]float32, len(targets)),
		TargetAvailabilities: avail,
	}
}

func TestMakeExampleBatch(t *testing.T) {
	shape := [3]int{3, 4, 4}
	batch, err := MakeExampleBatch([]*Example{
		flatExample(shape, [][2]float32{{1, 2}, {3, 4}}),
		flatExample(shape, [][2]float32{{5, 6}, {7, 8}}),
	})
	if err != nil {
		t.Fatalf("MakeExampleBatch failed: %v", err)
	}
	if batch.BatchSize != 2 || batch.FutureLen != 2 {
		t.Fatalf("unexpected batch dims: %+v", batch)
	}
	if len(batch.Images) != 2*3*4*4 {
		t.Fatalf("flat image length = %d", len(batch.Images))
	}
	// Second example's first target lands at offset batch*future stride.
	if batch.Targets[4] != 5 || batch.Targets[5] != 6 {
		t.Fatalf("flat targets misplaced: %v", batch.Targets)
	}

	images, targets, err := batch.ToGomlxTensors()
	if err != nil {
		t.Fatalf("ToGomlxTensors failed: %v", err)
	}
	if images == nil || targets == nil {
		t.Fatalf("ToGomlxTensors returned nil tensor(s)")
	}
}

func TestMakeExampleBatchShapeMismatch(t *testing.T) {
	_, err := MakeExampleBatch([]*Example{
		flatExample([3]int{3, 4, 4}, [][2]float32{{1, 2}}),
		flatExample([3]int{3, 8, 8}, [][2]float32{{1, 2}}),
	})
	if err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestMakeExampleBatchEmpty(t *testing.T) {
	batch, err := MakeExampleBatch(nil)
	if err != nil {
		t.Fatalf("MakeExampleBatch(nil) failed: %v", err)
	}
	if _, _, err := batch.ToGomlxTensors(); err != nil {
		t.Fatalf("empty batch conversion failed: %v", err)
	}
}
