package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestBatchCompletionCounts(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	tests := []struct {
		name      string
		completed []bool
		want      int
		full      bool
	}{
		{name: "none", completed: []bool{false, false}, want: 0, full: false},
		{name: "partial", completed: []bool{true, false, true}, want: 2, full: false},
		{name: "all", completed: []bool{true, true}, want: 2, full: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := Batch{}
			for i, done := range tc.completed {
				b.Items = append(b.Items, Record{ID: uint(i + 1), AssignedAt: stamp, Completed: done})
			}
			require.Equal(t, tc.want, b.CompletedCount())
			require.Equal(t, len(tc.completed), b.Total())
			require.LessOrEqual(t, b.CompletedCount(), b.Total())
			require.Equal(t, tc.full, b.IsFullyComplete())
		})
	}
}

func TestBatchFeedbackFlags(t *testing.T) {
	b := Batch{Items: []Record{{ID: 1}, {ID: 2, TeacherFeedback: strPtr("good"), FeedbackSeen: true}}}
	require.True(t, b.HasFeedback())
	require.False(t, b.HasUnseenFeedback())

	b.Items = append(b.Items, Record{ID: 3, TeacherFeedback: strPtr("again")})
	require.True(t, b.HasUnseenFeedback())

	none := Batch{Items: []Record{{ID: 4}, {ID: 5, FeedbackSeen: true}}}
	require.False(t, none.HasFeedback())
	require.False(t, none.HasUnseenFeedback())
}

func TestRecordHasFeedbackFollowsNullability(t *testing.T) {
	require.False(t, Record{ID: 1}.HasFeedback())
	require.True(t, Record{ID: 2, TeacherFeedback: strPtr("")}.HasFeedback())
	require.True(t, Record{ID: 3, TeacherFeedback: strPtr("  ")}.HasUnseenFeedback())
}

func TestNextItemPrefersFirstPending(t *testing.T) {
	b := Batch{Items: []Record{
		{ID: 1, Completed: true},
		{ID: 2},
		{ID: 3},
	}}

	next, ok := b.NextItem()
	require.True(t, ok)
	require.Equal(t, uint(2), next.ID)
}

func TestNextItemOnCompletedBatchIsDeterministic(t *testing.T) {
	b := Batch{Items: []Record{{ID: 5, Completed: true}, {ID: 6, Completed: true}}}

	for i := 0; i < 3; i++ {
		next, ok := b.NextItem()
		require.True(t, ok)
		require.Equal(t, uint(5), next.ID)
	}

	_, ok := Batch{}.NextItem()
	require.False(t, ok)
}

func TestNextPendingScansAllRecords(t *testing.T) {
	records := []Record{
		{ID: 9},
		{ID: 3, Completed: true},
		{ID: 7},
		{ID: 4},
	}

	next, ok := NextPending(records, 4)
	require.True(t, ok)
	require.Equal(t, uint(7), next.ID)

	_, ok = NextPending([]Record{{ID: 1, Completed: true}, {ID: 2}}, 2)
	require.False(t, ok)
}

func TestRecordFeedbackSeenIsOneWay(t *testing.T) {
	record := Record{ID: 1, TeacherFeedback: strPtr("good")}
	require.True(t, record.MarkFeedbackSeen())
	require.True(t, record.FeedbackSeen)

	record.TeacherFeedback = strPtr("better now")
	require.False(t, record.MarkFeedbackSeen())
	require.True(t, record.FeedbackSeen)
	require.False(t, record.HasUnseenFeedback())

	noFeedback := Record{ID: 2}
	require.False(t, noFeedback.MarkFeedbackSeen())
	require.False(t, noFeedback.FeedbackSeen)
}

func TestRecordCompleteOnlyOnce(t *testing.T) {
	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	record := Record{ID: 1}

	require.True(t, record.Complete(first))
	require.False(t, record.Complete(first.Add(time.Hour)))
	require.Equal(t, first, *record.CompletedAt)
}

func TestLocate(t *testing.T) {
	ordered := []Record{{ID: 10}, {ID: 11}, {ID: 12}}

	first := Locate(ordered, 10)
	require.Equal(t, 1, first.Current())
	require.Equal(t, 3, first.Total)
	require.Nil(t, first.PrevID)
	require.Equal(t, uint(11), *first.NextID)

	middle := Locate(ordered, 11)
	require.Equal(t, uint(10), *middle.PrevID)
	require.Equal(t, uint(12), *middle.NextID)

	last := Locate(ordered, 12)
	require.Equal(t, 3, last.Current())
	require.Nil(t, last.NextID)

	missing := Locate(ordered, 99)
	require.Equal(t, 0, missing.Index)

	single := Locate([]Record{{ID: 1}}, 1)
	require.Nil(t, single.PrevID)
	require.Nil(t, single.NextID)
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind(" Quiz ")
	require.True(t, ok)
	require.Equal(t, KindQuiz, kind)

	_, ok = ParseKind("essay")
	require.False(t, ok)
}
