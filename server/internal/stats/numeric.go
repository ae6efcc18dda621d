package stats

import (
	"math"
	"sort"
	"strconv"
)

// pairwiseBlock is the largest run summed with the 8-way unrolled loop before
// the input is split in two.
const pairwiseBlock = 128

// Sum adds values with pairwise summation.
func Sum(values []float64) float64 {
	n := len(values)
	switch {
	case n < 8:
		var res float64
		for _, v := range values {
			res += v
		}
		return res
	case n <= pairwiseBlock:
		var r [8]float64
		copy(r[:], values[:8])
		i := 8
		for ; i < n-n%8; i += 8 {
			for j := 0; j < 8; j++ {
				r[j] += values[i+j]
			}
		}
		res := ((r[0] + r[1]) + (r[2] + r[3])) + ((r[4] + r[5]) + (r[6] + r[7]))
		for ; i < n; i++ {
			res += values[i]
		}
		return res
	default:
		n2 := n / 2
		n2 -= n2 % 8
		return Sum(values[:n2]) + Sum(values[n2:])
	}
}

// Mean returns the arithmetic mean of values, or NaN when values is empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return Sum(values) / float64(len(values))
}

// Quantile returns the q-quantile (0 <= q <= 1) of values using linear
// interpolation between the order statistics at floor and ceil of
// q*(n-1). values is not modified. Returns NaN when values is empty.
func Quantile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := float64(n-1) * q
	lo := math.Floor(rank)
	gamma := rank - lo

	switch {
	case rank >= float64(n-1):
		return sorted[n-1]
	case rank < 0:
		return sorted[0]
	}
	i := int(lo)
	return lerp(sorted[i], sorted[i+1], gamma)
}

// lerp interpolates from a towards b. For t >= 0.5 it measures back from b.
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

// Round rounds x to the given number of decimal places. Ties are resolved on
// the exact binary value of x, half to even, so Round(2.675, 2) is 2.67.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}
