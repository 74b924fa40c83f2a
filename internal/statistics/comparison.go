package statistics

// IntnSource is the subset of *rand.Rand used for jitter.
type IntnSource interface {
	Intn(n int) int
}

// DeriveComparison fabricates the "comparison" histogram series by jittering
// each primary count by an integer in [-2, 2] and clipping at zero. It stands in
// for a second measurement that does not exist; callers with real comparison
// data should use that instead.
func DeriveComparison(primary []int, rng IntnSource) []int {
	out := make([]int, len(primary))
	for i, c := range primary {
		v := c + rng.Intn(2*jitterMaxStep+1) - jitterMaxStep
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}
