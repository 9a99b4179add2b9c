package models

import (
	"time"

	"github.com/kubotadaichi/HealthManagement/internal/utils"
)

// VASResult holds the visual-analogue self-report, both scales 0-100.
type VASResult struct {
	ID              int       `gorm:"primaryKey" json:"id"`
	SleepinessScore *int      `gorm:"not null" json:"sleepiness_score" validate:"required,gte=0,lte=100"`
	FatigueScore    *int      `gorm:"not null" json:"fatigue_score" validate:"required,gte=0,lte=100"`
	CompletedAt     time.Time `gorm:"not null;index" json:"completed_at"`
}

func (VASResult) TableName() string { return "vas_results" }

func (r *VASResult) Validate() error {
	return utils.ValidateStruct(r)
}

func (r *VASResult) Stamp(at time.Time) {
	r.ID = 0
	r.CompletedAt = at
}
