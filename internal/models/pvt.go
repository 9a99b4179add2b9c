package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/kubotadaichi/HealthManagement/internal/utils"
)

// PVTResult holds one Psychomotor Vigilance Test run.
type PVTResult struct {
	ID                  int                          `gorm:"primaryKey" json:"id"`
	MissCount           *int                         `gorm:"not null" json:"miss_count" validate:"required,gte=0"`
	AverageReactionTime *float64                     `gorm:"not null" json:"average_reaction_time" validate:"required,gte=0"` // ms
	AllReactionTimes    datatypes.JSONSlice[float64] `gorm:"not null" json:"all_reaction_times" validate:"required"`
	CompletedAt         time.Time                    `gorm:"not null;index" json:"completed_at"`
}

func (PVTResult) TableName() string { return "pvt_results" }

func (r *PVTResult) Validate() error {
	return utils.ValidateStruct(r)
}

func (r *PVTResult) Stamp(at time.Time) {
	r.ID = 0
	r.CompletedAt = at
}
