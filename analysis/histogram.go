package analysis

import "math"

// Bin 直方图区间
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram splits the non-NaN values into equal-width bins between their
// minimum and maximum. The last bin is closed on the right.
func Histogram(values []float64, bins int) []Bin {
	clean := dropNaN(values)
	if len(clean) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(clean)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range clean {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// GroupRare relabels every key seen fewer than minCount times as other.
func GroupRare(keys []string, minCount int, other string) []string {
	counts := make(map[string]int)
	for _, k := range keys {
		counts[k]++
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		if k != "" && counts[k] < minCount {
			k = other
		}
		out[i] = k
	}
	return out
}
