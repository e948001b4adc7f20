package datasets

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrBadTransform is returned when a sample's world-to-image transform cannot
// be inverted.
var ErrBadTransform = errors.New("datasets: world-to-image transform is not invertible")

// frenetTargets rewrites future targets from raster pixel space into a
// route-relative Frenet frame, in place:
//
//  1. invert the 3x3 world-to-image affine to get world-from-image;
//  2. map every target position into world coordinates;
//  3. recover the ego's initial world heading from the inverted transform's
//     first row and add it to the ego-relative target yaws;
//  4. convert each world (position, heading) through the route-Frenet
//     primitive;
//  5. convert the agent's current center (heading 0) for the s0 anchor;
//  6. subtract s0 from the longitudinal coordinate only. The lateral anchor
//     is deliberately not subtracted: lateral targets stay absolute to the
//     lane centerline so a model learns to recenter rather than to preserve
//     the current offset.
//
// Availability masks are untouched. Any conversion error aborts the rewrite
// and propagates; there is no fallback to pixel-space targets.
func frenetTargets(positions [][2]float32, yaws []float32, worldToImage [3][3]float64, egoCenterImage [2]float64, route Rasterizer) error {
	w2i := mat.NewDense(3, 3, []float64{
		worldToImage[0][0], worldToImage[0][1], worldToImage[0][2],
		worldToImage[1][0], worldToImage[1][1], worldToImage[1][2],
		worldToImage[2][0], worldToImage[2][1], worldToImage[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(w2i); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTransform, err)
	}

	worldFromImage := func(x, y float64) (float64, float64) {
		wx := inv.At(0, 0)*x + inv.At(0, 1)*y + inv.At(0, 2)
		wy := inv.At(1, 0)*x + inv.At(1, 1)*y + inv.At(1, 2)
		return wx, wy
	}
	initialEgoYaw := math.Atan2(inv.At(0, 1), inv.At(0, 0))

	egoX, egoY := worldFromImage(egoCenterImage[0], egoCenterImage[1])
	s0, _, _, err := route.RouteFrenet(egoX, egoY, 0)
	if err != nil {
		return fmt.Errorf("route-frenet conversion of ego anchor: %w", err)
	}

	for i := range positions {
		wx, wy := worldFromImage(float64(positions[i][0]), float64(positions[i][1]))
		heading := float64(yaws[i]) + initialEgoYaw
		s, d, rel, err := route.RouteFrenet(wx, wy, heading)
		if err != nil {
			return fmt.Errorf("route-frenet conversion of target %d: %w", i, err)
		}
		positions[i] = [2]float32{float32(s - s0), float32(d)}
		yaws[i] = float32(rel)
	}
	return nil
}
