package state

import "fmt"

// BucketConfig is one maturity-range partition. TauMax == nil means
// unbounded above (the longest bucket).
type BucketConfig struct {
	Name   string `yaml:"name"`
	TauMin int    `yaml:"tau_min"`
	TauMax *int   `yaml:"tau_max"`
}

// BucketSet is the ordered maturity partition. Order is ascending by
// TauMin and is the canonical iteration order for per-bucket work.
type BucketSet struct {
	buckets []BucketConfig
}

func NewBucketSet(buckets []BucketConfig) *BucketSet {
	return &BucketSet{buckets: buckets}
}

// DefaultBuckets is the standard short/mid/long partition.
func DefaultBuckets() []BucketConfig {
	eight := 8
	three := 3
	return []BucketConfig{
		{Name: "short", TauMin: 1, TauMax: &three},
		{Name: "mid", TauMin: 4, TauMax: &eight},
		{Name: "long", TauMin: 9, TauMax: nil},
	}
}

// Classify maps a remaining time-to-maturity to a bucket name. Tau at
// or below the shortest bucket's floor classifies into the shortest
// bucket: a ticket maturing today stays there until settlement deletes
// it.
func (s *BucketSet) Classify(tau int) string {
	if tau <= s.buckets[0].TauMin {
		return s.buckets[0].Name
	}
	for _, b := range s.buckets {
		if tau >= b.TauMin && (b.TauMax == nil || tau <= *b.TauMax) {
			return b.Name
		}
	}
	// Unreachable for a validated partition (last bucket is unbounded).
	panic(fmt.Sprintf("FATAL: tau %d not covered by bucket partition", tau))
}

// Names returns bucket names in partition order.
func (s *BucketSet) Names() []string {
	names := make([]string, len(s.buckets))
	for i, b := range s.buckets {
		names[i] = b.Name
	}
	return names
}

// Configs returns the partition in order.
func (s *BucketSet) Configs() []BucketConfig {
	return s.buckets
}
