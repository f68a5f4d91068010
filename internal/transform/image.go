package transform

import (
	"errors"
	"math"

	"github.com/signalnine/tspselect/internal/geometry"
)

// Image renders city density on a Grid x Grid raster. Each of the Rotations
// evenly spaced rotations about the centre becomes one channel; Flip adds
// the horizontal and vertical mirror images as two more channels. Cells
// hold the fraction of cities that fall in them.
type Image struct {
	Grid      int
	Rotations int
	Scale     float64
	Flip      bool
}

func (im *Image) channels() int {
	c := im.Rotations
	if im.Flip {
		c += 2
	}
	return c
}

func (im *Image) Shape() []int {
	return []int{im.channels(), im.Grid, im.Grid}
}

func (im *Image) Apply(rec *geometry.Record) (Tensor, error) {
	if len(rec.Coords) == 0 {
		return Tensor{}, errors.New("instance has no coordinates")
	}
	pts := unitSquare(rec.Coords)
	plane := im.Grid * im.Grid
	data := make([]float64, im.channels()*plane)

	ch := 0
	for r := 0; r < im.Rotations; r++ {
		theta := 2 * math.Pi * float64(r) / float64(im.Rotations)
		sin, cos := math.Sincos(theta)
		im.render(data[ch*plane:(ch+1)*plane], pts, func(x, y float64) (float64, float64) {
			return cos*x - sin*y, sin*x + cos*y
		})
		ch++
	}
	if im.Flip {
		im.render(data[ch*plane:(ch+1)*plane], pts, func(x, y float64) (float64, float64) { return -x, y })
		ch++
		im.render(data[ch*plane:(ch+1)*plane], pts, func(x, y float64) (float64, float64) { return x, -y })
	}
	return Tensor{Shape: im.Shape(), Data: data}, nil
}

// render maps centred points through f, scales them and bins them.
func (im *Image) render(dst []float64, pts [][2]float64, f func(x, y float64) (float64, float64)) {
	inc := 1 / float64(len(pts))
	for _, p := range pts {
		x, y := f(p[0]-0.5, p[1]-0.5)
		dst[im.cell(x*im.Scale+0.5)*im.Grid+im.cell(y*im.Scale+0.5)] += inc
	}
}

func (im *Image) cell(v float64) int {
	i := int(math.Floor(v * float64(im.Grid)))
	return min(max(i, 0), im.Grid-1)
}
