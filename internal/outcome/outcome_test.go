package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		outcome ProcessingOutcome
		want    Status
	}{
		{
			name:    "heavy delete needs review",
			outcome: ProcessingOutcome{BorderFound: true, EntitiesBefore: 100, EntitiesDeleted: 60},
			want:    StatusReview,
		},
		{
			name:    "exactly at threshold is success",
			outcome: ProcessingOutcome{BorderFound: true, EntitiesBefore: 100, EntitiesDeleted: 50},
			want:    StatusSuccess,
		},
		{
			name:    "no border is success",
			outcome: ProcessingOutcome{EntitiesBefore: 40},
			want:    StatusSuccess,
		},
		{
			name:    "empty drawing",
			outcome: ProcessingOutcome{BorderFound: true},
			want:    StatusSuccess,
		},
		{
			name:    "failure wins over review",
			outcome: ProcessingOutcome{BorderFound: true, EntitiesBefore: 10, EntitiesDeleted: 9, Status: StatusFailed},
			want:    StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.outcome
			o.ComputeDeletePct()
			assert.Equal(t, tt.want, o.Classify(DefaultReviewThreshold))
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestComputeDeletePct(t *testing.T) {
	o := ProcessingOutcome{EntitiesBefore: 100, EntitiesDeleted: 60}
	o.ComputeDeletePct()
	assert.InDelta(t, 60.0, o.DeletePct, 1e-9)

	o = ProcessingOutcome{EntitiesBefore: 3, EntitiesDeleted: 1}
	o.ComputeDeletePct()
	assert.InDelta(t, 33.333, o.DeletePct, 1e-3)

	o = ProcessingOutcome{}
	o.ComputeDeletePct()
	assert.Zero(t, o.DeletePct)
}

func TestClassify_CustomThreshold(t *testing.T) {
	o := ProcessingOutcome{BorderFound: true, EntitiesBefore: 10, EntitiesDeleted: 3}
	o.ComputeDeletePct()
	assert.Equal(t, StatusReview, o.Classify(25))
}

func TestFail(t *testing.T) {
	o := New("a.json", "/in/a.json")
	o.Fail("Could not open file")
	assert.True(t, o.Failed())
	assert.Equal(t, StatusFailed, o.Classify(DefaultReviewThreshold))
	assert.Equal(t, "Could not open file", o.ErrorMessage)
}

func TestSummarize(t *testing.T) {
	outcomes := []*ProcessingOutcome{
		{Status: StatusSuccess, BorderFound: true, EntitiesDeleted: 12},
		{Status: StatusSuccess},
		{Status: StatusReview, BorderFound: true, EntitiesDeleted: 60},
		{Status: StatusFailed},
	}

	assert.Equal(t, Summary{Total: 4, Success: 2, Failed: 1, Review: 1, Removed: 72, NoBorder: 1}, Summarize(outcomes))
}
