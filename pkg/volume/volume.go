// Package volume provides the in-memory volumetric data model shared by the
// tissue mask pipelines. A volume is an N-dimensional array of real-valued
// intensities stored as a flat row-major slice; a mask is a same-shape boolean
// array selecting the voxels that take part in model fitting.
//
// The flat row-major index order is the single source of truth for moving
// between a volume and the vector of masked intensities: Gather visits true
// mask positions in ascending flat index order, and Scatter writes results
// back in exactly the same order.
package volume

import "fmt"

// Volume is an N-dimensional array of voxel intensities.
type Volume struct {
	// Shape holds the extent of each dimension, slowest-varying first.
	Shape []int

	// Data holds the voxel intensities in flat row-major order.
	// len(Data) always equals the product of Shape.
	Data []float64
}

// New allocates a zero-filled volume with the given shape.
func New(shape ...int) *Volume {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Volume{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// Len returns the total number of voxels in the volume.
func (v *Volume) Len() int {
	return len(v.Data)
}

// SameShape reports whether two shapes are identical dimension by dimension.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ShapeMismatchError reports that two arrays that must share a shape do not.
type ShapeMismatchError struct {
	Got  []int
	Want []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("volume: shape mismatch: got %v, want %v", e.Got, e.Want)
}

// Mask is a boolean array marking the voxels included in a computation.
// It always has the same shape as the volume it was derived from.
type Mask struct {
	Shape []int
	Data  []bool
}

// InclusionMask derives the boolean inclusion mask for img. When brain is
// non-nil its strictly positive voxels define the mask; otherwise the
// strictly positive voxels of img itself do. A brain mask whose shape differs
// from the image is rejected with a *ShapeMismatchError before any values are
// inspected.
func InclusionMask(img, brain *Volume) (*Mask, error) {
	src := img
	if brain != nil {
		if !SameShape(brain.Shape, img.Shape) {
			return nil, &ShapeMismatchError{Got: brain.Shape, Want: img.Shape}
		}
		src = brain
	}

	m := &Mask{
		Shape: append([]int(nil), img.Shape...),
		Data:  make([]bool, img.Len()),
	}
	for i, val := range src.Data {
		m.Data[i] = val > 0
	}
	return m, nil
}

// Count returns the number of included voxels.
func (m *Mask) Count() int {
	n := 0
	for _, in := range m.Data {
		if in {
			n++
		}
	}
	return n
}

// Gather returns the intensities of img at the included voxels, in ascending
// flat index order. The returned slice has length Count().
func (m *Mask) Gather(img *Volume) ([]float64, error) {
	if !SameShape(img.Shape, m.Shape) {
		return nil, &ShapeMismatchError{Got: img.Shape, Want: m.Shape}
	}
	vals := make([]float64, 0, m.Count())
	for i, in := range m.Data {
		if in {
			vals = append(vals, img.Data[i])
		}
	}
	return vals, nil
}

// Scatter writes vals into dst at the included voxels, matching the index
// order used by Gather. Excluded voxels are left untouched. dst must share
// the mask's shape and vals must have length Count().
func (m *Mask) Scatter(vals []float64, dst *Volume) error {
	if !SameShape(dst.Shape, m.Shape) {
		return &ShapeMismatchError{Got: dst.Shape, Want: m.Shape}
	}
	if len(vals) != m.Count() {
		return fmt.Errorf("volume: scatter length %d does not match mask count %d", len(vals), m.Count())
	}
	j := 0
	for i, in := range m.Data {
		if in {
			dst.Data[i] = vals[j]
			j++
		}
	}
	return nil
}

// ScatterClass writes vals into the class-th slice of a per-class volume dst,
// whose shape is the mask's shape with a trailing dimension of classes. The
// trailing class axis is the fastest-varying one, so voxel i of class c lives
// at flat index i*classes+c.
func (m *Mask) ScatterClass(vals []float64, class, classes int, dst *Volume) error {
	want := append(append([]int(nil), m.Shape...), classes)
	if !SameShape(dst.Shape, want) {
		return &ShapeMismatchError{Got: dst.Shape, Want: want}
	}
	if len(vals) != m.Count() {
		return fmt.Errorf("volume: scatter length %d does not match mask count %d", len(vals), m.Count())
	}
	j := 0
	for i, in := range m.Data {
		if in {
			dst.Data[i*classes+class] = vals[j]
			j++
		}
	}
	return nil
}
