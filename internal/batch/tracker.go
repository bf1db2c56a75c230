package batch

import (
	"sort"
	"time"
)

// Total returns the number of records in the batch.
func (b Batch) Total() int {
	return len(b.Items)
}

// CompletedCount returns how many records in the batch are completed.
func (b Batch) CompletedCount() int {
	count := 0
	for _, item := range b.Items {
		if item.Completed {
			count++
		}
	}
	return count
}

// IsFullyComplete reports whether every record in the batch is completed.
func (b Batch) IsFullyComplete() bool {
	return b.CompletedCount() == b.Total()
}

// HasFeedback reports whether any record carries teacher feedback.
func (b Batch) HasFeedback() bool {
	for _, item := range b.Items {
		if item.HasFeedback() {
			return true
		}
	}
	return false
}

// HasUnseenFeedback reports whether any record carries feedback the student has not seen.
func (b Batch) HasUnseenFeedback() bool {
	for _, item := range b.Items {
		if item.HasUnseenFeedback() {
			return true
		}
	}
	return false
}

// NextItem returns the first pending record in batch order. A fully completed
// batch resolves to its first record. ok is false only for an empty batch.
func (b Batch) NextItem() (Record, bool) {
	if len(b.Items) == 0 {
		return Record{}, false
	}
	for _, item := range b.Items {
		if !item.Completed {
			return item, true
		}
	}
	return b.Items[0], true
}

// LatestAssignedAt returns the newest assigned_at among the members.
func (b Batch) LatestAssignedAt() time.Time {
	var latest time.Time
	for _, item := range b.Items {
		if item.AssignedAt.After(latest) {
			latest = item.AssignedAt
		}
	}
	return latest
}

// IDs returns member ids in batch order.
func (b Batch) IDs() []uint {
	ids := make([]uint, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// NextPending returns the pending record with the lowest id, skipping excludeID.
// The input order does not matter.
func NextPending(records []Record, excludeID uint) (Record, bool) {
	candidates := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Completed || record.ID == excludeID {
			continue
		}
		candidates = append(candidates, record)
	}
	if len(candidates) == 0 {
		return Record{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
	return candidates[0], true
}
