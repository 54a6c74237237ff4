package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeQuota(t *testing.T) {
	loc := time.UTC
	now := time.Date(2021, 3, 15, 14, 30, 0, 0, loc)
	today := func(hour int) time.Time { return time.Date(2021, 3, 15, hour, 0, 0, 0, loc) }

	req := func(state State, createdAt time.Time) ChatRequest {
		return ChatRequest{FromUserID: "s1", State: state, CreatedAt: createdAt}
	}

	tests := []struct {
		name     string
		requests []ChatRequest
		want     QuotaStatus
	}{
		{name: "no requests", want: QuotaStatus{CanSend: true, Count: 0}},
		{
			name:     "yesterday's request does not count",
			requests: []ChatRequest{req(StatePending, now.AddDate(0, 0, -1))},
			want:     QuotaStatus{CanSend: true, Count: 0},
		},
		{
			name:     "pending today blocks",
			requests: []ChatRequest{req(StatePending, today(9))},
			want:     QuotaStatus{CanSend: false, Count: 1},
		},
		{
			name:     "approved today blocks",
			requests: []ChatRequest{req(StateApproved, today(9))},
			want:     QuotaStatus{CanSend: false, Count: 1},
		},
		{
			name:     "active today blocks",
			requests: []ChatRequest{req(StateActive, today(9))},
			want:     QuotaStatus{CanSend: false, Count: 1},
		},
		{
			name:     "ended today blocks until tomorrow",
			requests: []ChatRequest{req(StateEnded, today(9))},
			want:     QuotaStatus{CanSend: false, Count: 1},
		},
		{
			name:     "rejection frees the slot same-day",
			requests: []ChatRequest{req(StateRejected, today(9))},
			want:     QuotaStatus{CanSend: true, Count: 1},
		},
		{
			name: "most recent wins: rejected then pending",
			requests: []ChatRequest{
				req(StateRejected, today(9)),
				req(StatePending, today(11)),
			},
			want: QuotaStatus{CanSend: false, Count: 2},
		},
		{
			name: "most recent wins: pending then rejected",
			requests: []ChatRequest{
				req(StatePending, today(9)),
				req(StateRejected, today(11)),
			},
			want: QuotaStatus{CanSend: true, Count: 2},
		},
		{
			name:     "tomorrow's request is out of bucket",
			requests: []ChatRequest{req(StatePending, now.AddDate(0, 0, 1))},
			want:     QuotaStatus{CanSend: true, Count: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeQuota(tt.requests, now, loc))
		})
	}
}

// A request created late on one local day must not leak into the next day's
// bucket, whatever timezone the timestamps are stored in.
func TestComputeQuota_localDayBoundary(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 local yesterday == 21:30 UTC yesterday
	lateYesterday := time.Date(2021, 3, 14, 21, 30, 0, 0, time.UTC)
	now := time.Date(2021, 3, 15, 8, 0, 0, 0, loc)

	status := ComputeQuota([]ChatRequest{{State: StatePending, CreatedAt: lateYesterday}}, now, loc)
	assert.Equal(t, QuotaStatus{CanSend: true, Count: 0}, status)
}
