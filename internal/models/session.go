package models

import (
	"fmt"
	"time"

	"github.com/kubotadaichi/HealthManagement/internal/utils"
)

// SessionRequest carries one result of each task type, as submitted after a
// full run of the battery.
type SessionRequest struct {
	PVT     *PVTResult     `json:"pvt" validate:"required"`
	Flanker *FlankerResult `json:"flanker" validate:"required"`
	EFSI    *EFSIResult    `json:"efsi" validate:"required"`
	VAS     *VASResult     `json:"vas" validate:"required"`
}

// Validate checks every sub-result; reported field names are prefixed with
// the sub-result key, e.g. "efsi.answers".
func (r *SessionRequest) Validate() error {
	if r.Flanker != nil {
		r.Flanker.applyDefaults()
	}
	return utils.ValidateStruct(r)
}

// DataQualityIssues lists cross-field totals that disagree. These are not
// validation failures; the values are stored as submitted.
func (r *SessionRequest) DataQualityIssues() []string {
	var issues []string
	if r.PVT != nil && Value(r.PVT.MissCount) > len(r.PVT.AllReactionTimes) {
		issues = append(issues, fmt.Sprintf("pvt.miss_count %d exceeds %d recorded trials",
			Value(r.PVT.MissCount), len(r.PVT.AllReactionTimes)))
	}
	if r.Flanker != nil {
		total := Value(r.Flanker.TotalCorrect)
		if sum := Value(r.Flanker.CongruentCorrect) + Value(r.Flanker.IncongruentCorrect); sum != total {
			issues = append(issues, fmt.Sprintf("flanker.total_correct %d != congruent+incongruent %d",
				total, sum))
		}
	}
	if r.EFSI != nil {
		sum := 0
		for _, a := range r.EFSI.Answers {
			sum += a
		}
		if sum != Value(r.EFSI.TotalScore) {
			issues = append(issues, fmt.Sprintf("efsi.total_score %d != sum of answers %d",
				Value(r.EFSI.TotalScore), sum))
		}
	}
	return issues
}

// SessionResult is the outcome of storing a session: the four persisted
// rows plus the session identifier and timestamp. The session itself is
// never stored.
type SessionResult struct {
	PVT         PVTResult     `json:"pvt"`
	Flanker     FlankerResult `json:"flanker"`
	EFSI        EFSIResult    `json:"efsi"`
	VAS         VASResult     `json:"vas"`
	SessionID   string        `json:"session_id"`
	CompletedAt time.Time     `json:"completed_at"`
}
