package grade

import "math"

// Statuses
const (
	StatusApproved = "approved"
	StatusFailed   = "failed"
	StatusPending  = "pending"
)

const (
	approvalAverage = 7.0
	failureAverage  = 5.0
	periodsPerYear  = 4
)

var statusLabels = map[string]string{
	StatusApproved: "Aprovado",
	StatusFailed:   "Reprovado",
	StatusPending:  "Pendente",
}

// StatusLabel is the status as printed on report sheets.
func StatusLabel(status string) string {
	return statusLabels[status]
}

// Summary is a student's result in a subject for the year.
type Summary struct {
	Average *float64 `json:"average"`
	Status  string   `json:"status"`
	// InRecovery flags a complete year whose average is between the failure and approval marks.
	InRecovery bool `json:"in_recovery"`
}

// Summarize averages the scores present (rounded half-up to one decimal) and derives the status.
// The status stays pending until all four scores are known; it is then decided on the unrounded average.
func Summarize(scores [periodsPerYear]*float64) Summary {
	var sum float64
	var n int
	for _, s := range scores {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return Summary{Status: StatusPending}
	}

	raw := sum / float64(n)
	avg := math.Floor(raw*10+0.5) / 10
	sm := Summary{Average: &avg, Status: StatusPending}
	if n == periodsPerYear {
		switch {
		case raw >= approvalAverage:
			sm.Status = StatusApproved
		case raw < failureAverage:
			sm.Status = StatusFailed
		default:
			sm.InRecovery = true
		}
	}
	return sm
}
