package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kubotadaichi/HealthManagement/internal/errs"
	"github.com/kubotadaichi/HealthManagement/internal/models"
)

type fakeStore struct {
	calls   int
	records []models.Result
	err     error
	nextID  int
}

func (f *fakeStore) InsertAtomic(_ context.Context, records ...models.Result) error {
	f.calls++
	f.records = records
	if f.err != nil {
		return f.err
	}
	for _, rec := range records {
		f.nextID++
		switch r := rec.(type) {
		case *models.PVTResult:
			r.ID = f.nextID
		case *models.FlankerResult:
			r.ID = f.nextID
		case *models.EFSIResult:
			r.ID = f.nextID
		case *models.VASResult:
			r.ID = f.nextID
		}
	}
	return nil
}

func validSession() *models.SessionRequest {
	answers := make([]int, models.EFSIItems)
	for i := range answers {
		answers[i] = 2
	}
	return &models.SessionRequest{
		PVT:     &models.PVTResult{MissCount: models.Ptr(1), AverageReactionTime: models.Ptr(287.5), AllReactionTimes: []float64{250, 300, 310}},
		Flanker: &models.FlankerResult{TotalCorrect: models.Ptr(85), CongruentCorrect: models.Ptr(45), IncongruentCorrect: models.Ptr(40), TotalTrials: 100},
		EFSI:    &models.EFSIResult{TotalScore: models.Ptr(52), Answers: answers},
		VAS:     &models.VASResult{SleepinessScore: models.Ptr(40), FatigueScore: models.Ptr(55)},
	}
}

func TestSessionServiceComplete(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc := NewSessionService(zap.NewNop(), store,
		WithSessionClock(func() time.Time { return at }),
		WithSessionIDs(func() string { return "session-1" }),
	)

	result, err := svc.Complete(context.Background(), validSession())
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Len(t, store.records, 4)
	assert.Equal(t, "session-1", result.SessionID)
	assert.True(t, at.Equal(result.CompletedAt))
	assert.Equal(t, 1, result.PVT.ID)
	assert.Equal(t, 2, result.Flanker.ID)
	assert.Equal(t, 3, result.EFSI.ID)
	assert.Equal(t, 4, result.VAS.ID)
	assert.Equal(t, 85, *result.Flanker.TotalCorrect)
}

func TestSessionServiceDistinctIDs(t *testing.T) {
	svc := NewSessionService(zap.NewNop(), &fakeStore{})

	first, err := svc.Complete(context.Background(), validSession())
	require.NoError(t, err)
	second, err := svc.Complete(context.Background(), validSession())
	require.NoError(t, err)

	assert.NotEmpty(t, first.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestSessionServiceRejectsInvalid(t *testing.T) {
	store := &fakeStore{}
	svc := NewSessionService(zap.NewNop(), store)

	req := validSession()
	req.EFSI.Answers = req.EFSI.Answers[:25]

	_, err := svc.Complete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Zero(t, store.calls)
}

func TestSessionServiceMissingSubResult(t *testing.T) {
	store := &fakeStore{}
	svc := NewSessionService(zap.NewNop(), store)

	req := validSession()
	req.VAS = nil

	_, err := svc.Complete(context.Background(), req)
	require.Error(t, err)
	fields := []string{}
	for _, v := range errs.ValidationErrors(err) {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "vas")
	assert.Zero(t, store.calls)
}

func TestSessionServiceStoreFailure(t *testing.T) {
	storeErr := &errs.StorageError{Op: "insert session", Err: errors.New("disk full")}
	svc := NewSessionService(zap.NewNop(), &fakeStore{err: storeErr})

	result, err := svc.Complete(context.Background(), validSession())
	assert.Nil(t, result)
	var se *errs.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert session", se.Op)
}

func TestSessionServiceLogsDataQuality(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewSessionService(zap.New(core), &fakeStore{})

	req := validSession()
	req.Flanker.TotalCorrect = models.Ptr(90) // congruent + incongruent is 85

	_, err := svc.Complete(context.Background(), req)
	require.NoError(t, err)

	warnings := logs.FilterMessage("Session totals disagree, storing as submitted").All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].ContextMap()["issue"], "flanker.total_correct")
}
