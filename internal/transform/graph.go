package transform

import (
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/signalnine/tspselect/internal/geometry"
)

// hilbertOrder is the curve order used to sort cities; 2^10 cells per side.
const hilbertOrder = 10

// Graph builds a k-nearest-neighbour graph over the cities, keeps a Keep
// fraction of its edges sampled with probability proportional to inverse
// length, and renders the result as a Size x Size adjacency image whose
// rows follow the cities' Hilbert-curve order. Edge cells hold
// exp(-d/mean) where mean is the mean kept edge length. Instances with more
// than Size cities are truncated along the curve; smaller ones are centred.
type Graph struct {
	Size      int
	Neighbors int
	Keep      float64
	Seed      int64
}

type edge struct {
	u, v int
	d    float64
}

func (g *Graph) Shape() []int {
	return []int{1, g.Size, g.Size}
}

func (g *Graph) Apply(rec *geometry.Record) (Tensor, error) {
	n := len(rec.Coords)
	if n == 0 {
		return Tensor{}, errors.New("instance has no coordinates")
	}
	pts := unitSquare(rec.Coords)
	dist := func(i, j int) float64 {
		if rec.Adjacency != nil {
			return rec.Adjacency[i][j]
		}
		return math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
	}

	edges := g.sample(g.neighbourEdges(n, dist), rng(g.Seed, rec.ID))
	rank := hilbertRanks(pts)
	offset := max(0, (g.Size-n)/2)

	var mean float64
	for _, e := range edges {
		mean += e.d
	}
	if len(edges) > 0 {
		mean /= float64(len(edges))
	}
	if mean <= 0 {
		mean = 1
	}

	adj := mat.NewDense(g.Size, g.Size, nil)
	for _, e := range edges {
		r, c := rank[e.u]+offset, rank[e.v]+offset
		if r >= g.Size || c >= g.Size {
			continue
		}
		w := math.Exp(-e.d / mean)
		adj.Set(r, c, w)
		adj.Set(c, r, w)
	}
	data := make([]float64, g.Size*g.Size)
	copy(data, adj.RawMatrix().Data)
	return Tensor{Shape: g.Shape(), Data: data}, nil
}

// neighbourEdges returns each undirected k-nearest-neighbour edge once.
func (g *Graph) neighbourEdges(n int, dist func(i, j int) float64) []edge {
	k := min(g.Neighbors, n-1)
	seen := map[[2]int]bool{}
	var edges []edge
	cand := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		cand = cand[:0]
		for j := 0; j < n; j++ {
			if j != i {
				cand = append(cand, j)
			}
		}
		sort.SliceStable(cand, func(a, b int) bool { return dist(i, cand[a]) < dist(i, cand[b]) })
		for _, j := range cand[:k] {
			key := [2]int{min(i, j), max(i, j)}
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, edge{u: key[0], v: key[1], d: dist(key[0], key[1])})
		}
	}
	return edges
}

// sample draws Keep*len(edges) edges without replacement, weighting each by
// its inverse length (Efraimidis-Spirakis keys).
func (g *Graph) sample(edges []edge, r *rand.Rand) []edge {
	m := int(float64(len(edges)) * g.Keep)
	if m >= len(edges) {
		return edges
	}
	keys := make([]float64, len(edges))
	for i, e := range edges {
		w := 1 / math.Max(e.d, 1e-12)
		keys[i] = math.Log(r.Float64()+1e-300) / w
	}
	idx := make([]int, len(edges))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] > keys[idx[b]] })
	out := make([]edge, m)
	for i := range out {
		out[i] = edges[idx[i]]
	}
	return out
}

// rng derives a per-instance source so sampling is reproducible and
// independent of loading order.
func rng(seed int64, id string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(id))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// hilbertRanks returns each point's position along a Hilbert curve.
func hilbertRanks(pts [][2]float64) []int {
	side := 1 << hilbertOrder
	d := make([]int, len(pts))
	for i, p := range pts {
		x := min(int(p[0]*float64(side-1)), side-1)
		y := min(int(p[1]*float64(side-1)), side-1)
		d[i] = hilbertIndex(side, x, y)
	}
	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return d[order[a]] < d[order[b]] })
	rank := make([]int, len(pts))
	for r, i := range order {
		rank[i] = r
	}
	return rank
}

// hilbertIndex maps (x, y) on a side x side grid to its curve distance.
func hilbertIndex(side, x, y int) int {
	d := 0
	for s := side / 2; s > 0; s /= 2 {
		rx, ry := 0, 0
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = side - 1 - x
				y = side - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}
