package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/kubotadaichi/HealthManagement/internal/utils"
)

// EFSIItems is the fixed number of questions in the fatigue inventory.
const EFSIItems = 26

// EFSIResult holds one fatigue-questionnaire submission. Each answer is 1-4.
type EFSIResult struct {
	ID          int                      `gorm:"primaryKey" json:"id"`
	TotalScore  *int                     `gorm:"not null" json:"total_score" validate:"required,gte=26,lte=104"`
	Answers     datatypes.JSONSlice[int] `gorm:"not null" json:"answers" validate:"required,len=26,dive,gte=1,lte=4"`
	CompletedAt time.Time                `gorm:"not null;index" json:"completed_at"`
}

func (EFSIResult) TableName() string { return "efsi_results" }

func (r *EFSIResult) Validate() error {
	return utils.ValidateStruct(r)
}

func (r *EFSIResult) Stamp(at time.Time) {
	r.ID = 0
	r.CompletedAt = at
}
