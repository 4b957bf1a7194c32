package filter

import (
	"sort"

	"github.com/maxvaer/intervention/internal/fuzz"
)

// Bucket groups results sharing one response length.
type Bucket struct {
	Length  int64
	Results []fuzz.Result // first-encounter order
}

// Count returns the number of results in the bucket.
func (b *Bucket) Count() int { return len(b.Results) }

// Buckets groups results by response length. Buckets are ordered by
// ascending length; every result lands in exactly one bucket.
func Buckets(results []fuzz.Result) []Bucket {
	index := make(map[int64]int)
	var buckets []Bucket
	for _, r := range results {
		i, ok := index[r.Length]
		if !ok {
			i = len(buckets)
			index[r.Length] = i
			buckets = append(buckets, Bucket{Length: r.Length})
		}
		buckets[i].Results = append(buckets[i].Results, r)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Length < buckets[j].Length
	})
	return buckets
}
