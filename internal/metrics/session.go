package metrics

import (
	"math"

	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// SessionSummary holds the metrics exported for one session. They are
// computed on demand and never stored.
type SessionSummary struct {
	PVTMeanReactionTime     float64 `json:"pvt_mean_reaction_time"`
	PVTAccuracy             float64 `json:"pvt_accuracy"`
	FlankerMeanReactionTime float64 `json:"flanker_mean_reaction_time"`
	FlankerAccuracy         float64 `json:"flanker_accuracy"`
	FatigueScore            int     `json:"fatigue_score"`
	Sleepiness              int     `json:"sleepiness"`
	Fatigue                 int     `json:"fatigue"`
}

// SummarizeSession derives the export metrics from a validated session.
// Every fractional value is rounded to two decimals.
func SummarizeSession(s *models.SessionRequest) SessionSummary {
	return SessionSummary{
		PVTMeanReactionTime:     Round2(models.Value(s.PVT.AverageReactionTime)),
		PVTAccuracy:             Round2(CalculatePVTAccuracy(s.PVT)),
		FlankerMeanReactionTime: Round2(CalculateFlankerMeanReactionTime(s.Flanker)),
		FlankerAccuracy:         Round2(CalculateFlankerAccuracy(s.Flanker)),
		FatigueScore:            models.Value(s.EFSI.TotalScore),
		Sleepiness:              models.Value(s.VAS.SleepinessScore),
		Fatigue:                 models.Value(s.VAS.FatigueScore),
	}
}

// CalculatePVTAccuracy is the share of trials that were not missed, as a
// percentage. Zero trials give 0.
func CalculatePVTAccuracy(r *models.PVTResult) float64 {
	totalTrials := len(r.AllReactionTimes)
	if totalTrials == 0 {
		return 0
	}
	return float64(totalTrials-models.Value(r.MissCount)) / float64(totalTrials) * 100
}

// CalculateFlankerAccuracy is total_correct over total_trials as a percentage.
func CalculateFlankerAccuracy(r *models.FlankerResult) float64 {
	totalTrials := r.TotalTrials
	if totalTrials == 0 {
		totalTrials = models.DefaultFlankerTrials
	}
	return float64(models.Value(r.TotalCorrect)) / float64(totalTrials) * 100
}

// CalculateFlankerMeanReactionTime averages the reaction times carried by
// trial details. Trials without one, or with 0 (a timeout), are skipped.
func CalculateFlankerMeanReactionTime(r *models.FlankerResult) float64 {
	var sum float64
	var count int

	for _, trial := range r.TrialDetails {
		if trial.ReactionTimeMS == nil || *trial.ReactionTimeMS == 0 {
			continue
		}
		sum += *trial.ReactionTimeMS
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
