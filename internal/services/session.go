package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// SessionStore is the persistence the aggregator needs: an all-or-nothing
// multi-insert.
type SessionStore interface {
	InsertAtomic(ctx context.Context, records ...models.Result) error
}

// SessionService combines the four task results of one battery run into a
// session and stores them atomically.
type SessionService struct {
	log   *zap.Logger
	store SessionStore
	now   func() time.Time
	newID func() string
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithSessionClock overrides the clock used for the session timestamp.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithSessionIDs overrides the session identifier generator.
func WithSessionIDs(newID func() string) SessionOption {
	return func(s *SessionService) { s.newID = newID }
}

func NewSessionService(log *zap.Logger, store SessionStore, opts ...SessionOption) *SessionService {
	s := &SessionService{
		log:   log,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Complete validates req, assigns a session id and timestamp and persists
// the four results in one transaction. Nothing is stored when it fails.
func (s *SessionService) Complete(ctx context.Context, req *models.SessionRequest) (*models.SessionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sessionID := s.newID()
	completedAt := s.now()
	log := s.log.With(zap.String("session_id", sessionID))

	for _, issue := range req.DataQualityIssues() {
		log.Warn("Session totals disagree, storing as submitted", zap.String("issue", issue))
	}

	if err := s.store.InsertAtomic(ctx, req.PVT, req.Flanker, req.EFSI, req.VAS); err != nil {
		log.Error("Failed to store session results", zap.Error(err))
		return nil, err
	}

	log.Info("Session stored",
		zap.Int("pvt_id", req.PVT.ID),
		zap.Int("flanker_id", req.Flanker.ID),
		zap.Int("efsi_id", req.EFSI.ID),
		zap.Int("vas_id", req.VAS.ID),
	)

	return &models.SessionResult{
		PVT:         *req.PVT,
		Flanker:     *req.Flanker,
		EFSI:        *req.EFSI,
		VAS:         *req.VAS,
		SessionID:   sessionID,
		CompletedAt: completedAt,
	}, nil
}
