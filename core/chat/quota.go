package chat

import "time"

// QuotaStatus reports whether a student may submit a new request today and
// how many they already submitted (surfaced to the UI for a quota badge).
type QuotaStatus struct {
	CanSend bool `json:"can_send"`
	Count   int  `json:"count"`
}

// ComputeQuota decides whether a sender may submit a new ChatRequest "now",
// given all of that sender's requests. Pure function; no side effects.
//
// The rule is one request per local calendar day: the most recent same-day
// request blocks a new one unless it was rejected (a rejection frees the slot
// immediately, even same-day). Note the check-then-write around this is not
// transactional: two near-simultaneous submissions can both pass. The store
// has no conditional writes, so this is best-effort.
func ComputeQuota(requests []ChatRequest, now time.Time, loc *time.Location) QuotaStatus {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var latest *ChatRequest
	var count int
	for i := range requests {
		created := requests[i].CreatedAt.In(loc)
		if created.Before(dayStart) || !created.Before(dayEnd) {
			continue
		}
		count++
		if latest == nil || created.After(latest.CreatedAt.In(loc)) {
			latest = &requests[i]
		}
	}

	if latest == nil || latest.State == StateRejected {
		return QuotaStatus{CanSend: true, Count: count}
	}
	return QuotaStatus{CanSend: false, Count: count}
}
