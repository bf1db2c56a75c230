package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func quiz(id uint, assignedAt time.Time) Record {
	return Record{ID: id, Kind: KindQuiz, StudentID: 1, ContentRef: id * 10, AssignedAt: assignedAt}
}

func TestGroupIntoBatchesSplitsByMinuteBucket(t *testing.T) {
	first := at(t, "2024-05-01T09:03:00Z")
	later := at(t, "2024-05-01T09:04:10Z")

	// store order: assigned_at desc, id asc
	records := []Record{quiz(13, later), quiz(10, first), quiz(11, first), quiz(12, first)}

	batches := GroupIntoBatches(records)
	require.Len(t, batches, 2)
	require.Equal(t, []uint{13}, batches[0].IDs())
	require.Equal(t, []uint{10, 11, 12}, batches[1].IDs())
	require.Equal(t, "2024-05-01 09:04", batches[0].Key)
	require.Equal(t, "2024-05-01 09:03", batches[1].Key)
}

func TestGroupIntoBatchesMergesNonConsecutiveBucketMembers(t *testing.T) {
	bucket := at(t, "2024-05-01T09:03:05Z")
	other := at(t, "2024-05-01T08:00:00Z")

	records := []Record{
		quiz(7, bucket.Add(40*time.Second)),
		quiz(3, other),
		quiz(5, bucket),
		quiz(6, bucket.Add(10*time.Second)),
	}

	batches := GroupIntoBatches(records)
	require.Len(t, batches, 2)
	require.Equal(t, []uint{5, 6, 7}, batches[0].IDs())
	require.Equal(t, []uint{3}, batches[1].IDs())
}

func TestGroupIntoBatchesSingletonAndEmpty(t *testing.T) {
	require.Empty(t, GroupIntoBatches(nil))

	batches := GroupIntoBatches([]Record{quiz(1, at(t, "2024-05-01T09:03:00Z"))})
	require.Len(t, batches, 1)
	require.Equal(t, 1, batches[0].Total())
}

func TestGroupIntoBatchesMixedKinds(t *testing.T) {
	stamp := at(t, "2024-05-01T10:00:30Z")
	records := []Record{
		{ID: 4, Kind: KindWriting, AssignedAt: stamp},
		{ID: 4, Kind: KindQuiz, AssignedAt: stamp},
		{ID: 2, Kind: KindFlashcard, AssignedAt: stamp},
	}

	batches := GroupIntoBatches(records)
	require.Len(t, batches, 1)
	items := batches[0].Items
	require.Equal(t, KindFlashcard, items[0].Kind)
	require.Equal(t, KindQuiz, items[1].Kind)
	require.Equal(t, KindWriting, items[2].Kind)
}

func TestGroupIntoBatchesNormalisesTimeZones(t *testing.T) {
	stamp := at(t, "2024-05-01T10:00:00Z")
	records := []Record{
		{ID: 9, Kind: KindFlashcard, AssignedAt: stamp},
		{ID: 2, Kind: KindQuiz, AssignedAt: stamp},
		{ID: 1, Kind: KindWriting, AssignedAt: stamp.In(time.FixedZone("JST", 9*60*60))},
	}

	batches := GroupIntoBatches(records)
	require.Len(t, batches, 1)
	require.Equal(t, []uint{1, 2, 9}, batches[0].IDs())
}

// Two unrelated deliveries within one minute merge; a delivery straddling a
// minute boundary splits. Both are accepted behaviour of the minute heuristic.
func TestGroupIntoBatchesMinuteHeuristicLimitations(t *testing.T) {
	merged := GroupIntoBatches([]Record{
		quiz(1, at(t, "2024-05-01T09:03:01Z")),
		quiz(2, at(t, "2024-05-01T09:03:59Z")),
	})
	require.Len(t, merged, 1)

	split := GroupIntoBatches([]Record{
		quiz(3, at(t, "2024-05-01T09:03:59Z")),
		quiz(4, at(t, "2024-05-01T09:04:00Z")),
	})
	require.Len(t, split, 2)
}

func TestFilterBucket(t *testing.T) {
	stamp := at(t, "2024-05-01T09:03:00Z")
	records := []Record{quiz(12, stamp), quiz(4, stamp.Add(-time.Hour)), quiz(10, stamp.Add(20*time.Second))}

	same := FilterBucket(records, quiz(99, stamp.Add(5*time.Second)))
	require.Len(t, same, 2)
	require.Equal(t, uint(10), same[0].ID)
	require.Equal(t, uint(12), same[1].ID)
}
