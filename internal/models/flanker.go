package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/kubotadaichi/HealthManagement/internal/utils"
)

// DefaultFlankerTrials is used when a submission leaves total_trials unset.
const DefaultFlankerTrials = 100

// FlankerTrial is a single trial of the Flanker task.
type FlankerTrial struct {
	Stimulus       string   `json:"stimulus,omitempty"`
	Correct        bool     `json:"correct"`
	ReactionTimeMS *float64 `json:"reaction_time_ms,omitempty" validate:"omitnil,gte=0"`
	Congruent      bool     `json:"congruent"`
}

// FlankerResult holds one Flanker task run. Only total_trials and
// trial_details may be omitted.
type FlankerResult struct {
	ID                 int                               `gorm:"primaryKey" json:"id"`
	TotalCorrect       *int                              `gorm:"not null" json:"total_correct" validate:"required,gte=0,lte=100"`
	CongruentCorrect   *int                              `gorm:"not null" json:"congruent_correct" validate:"required,gte=0,lte=100"`
	IncongruentCorrect *int                              `gorm:"not null" json:"incongruent_correct" validate:"required,gte=0,lte=100"`
	TotalTrials        int                               `gorm:"not null;default:100" json:"total_trials" validate:"gt=0"`
	TrialDetails       datatypes.JSONSlice[FlankerTrial] `json:"trial_details" validate:"omitempty,dive"`
	CompletedAt        time.Time                         `gorm:"not null;index" json:"completed_at"`
}

func (FlankerResult) TableName() string { return "flanker_results" }

// Validate fills TotalTrials with DefaultFlankerTrials when it is unset.
func (r *FlankerResult) Validate() error {
	r.applyDefaults()
	return utils.ValidateStruct(r)
}

func (r *FlankerResult) Stamp(at time.Time) {
	r.ID = 0
	r.CompletedAt = at
}

func (r *FlankerResult) applyDefaults() {
	if r.TotalTrials == 0 {
		r.TotalTrials = DefaultFlankerTrials
	}
}
