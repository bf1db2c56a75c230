// Package batch infers delivery batches from assignment records and derives
// their completion and feedback state.
//
// Storage carries no batch identifier. Records whose assigned_at falls into
// the same UTC minute are treated as one teacher delivery, so two unrelated
// deliveries issued within the same minute merge, and a delivery that
// straddles a minute boundary splits in two.
package batch

import (
	"sort"
	"time"
)

const bucketLayout = "2006-01-02 15:04"

// Batch is a set of records inferred to have been delivered together.
type Batch struct {
	Key    string    `json:"key"`
	Bucket time.Time `json:"bucket"`
	Items  []Record  `json:"items"`
}

// BucketKey truncates t to the minute and formats it at minute precision.
func BucketKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(bucketLayout)
}

// SameBucket reports whether two records share a minute bucket.
func SameBucket(a, b Record) bool {
	return BucketKey(a.AssignedAt) == BucketKey(b.AssignedAt)
}

// GroupIntoBatches partitions records by minute bucket. Every record sharing a
// bucket lands in the same batch no matter where it appears in the input.
// Items inside a batch are ordered by id; batches are ordered newest bucket
// first, ties broken by the smallest member id.
func GroupIntoBatches(records []Record) []Batch {
	index := make(map[string]int)
	batches := make([]Batch, 0)

	for _, record := range records {
		key := BucketKey(record.AssignedAt)
		pos, ok := index[key]
		if !ok {
			pos = len(batches)
			index[key] = pos
			batches = append(batches, Batch{
				Key:    key,
				Bucket: record.AssignedAt.UTC().Truncate(time.Minute),
			})
		}
		batches[pos].Items = append(batches[pos].Items, record)
	}

	for i := range batches {
		items := batches[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return less(items[a], items[b])
		})
	}

	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].Bucket.Equal(batches[j].Bucket) {
			return batches[i].Bucket.After(batches[j].Bucket)
		}
		return less(batches[i].Items[0], batches[j].Items[0])
	})

	return batches
}

// FilterBucket returns the records sharing ref's minute bucket, ordered by id.
func FilterBucket(records []Record, ref Record) []Record {
	key := BucketKey(ref.AssignedAt)
	out := make([]Record, 0)
	for _, record := range records {
		if BucketKey(record.AssignedAt) == key {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}
