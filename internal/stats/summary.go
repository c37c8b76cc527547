package stats

import "math"

// Summary describes a set of episode scores.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes the mean and population standard deviation of scores,
// as sqrt((sum(s^2) - sum(s)^2/n) / n). An empty input yields a zero Summary.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}
	n := float64(len(scores))
	var sum, sumSq float64
	minV, maxV := scores[0], scores[0]
	for _, s := range scores {
		sum += s
		sumSq += s * s
		minV = math.Min(minV, s)
		maxV = math.Max(maxV, s)
	}
	variance := (sumSq - (sum*sum)/n) / n
	if variance < 0 {
		// rounding on near-identical scores
		variance = 0
	}
	return Summary{
		Count:  len(scores),
		Mean:   sum / n,
		StdDev: math.Sqrt(variance),
		Min:    minV,
		Max:    maxV,
	}
}

// IntScores converts engine scores for Summarize.
func IntScores(scores []int) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = float64(s)
	}
	return out
}
