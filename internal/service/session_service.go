package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/locker"
	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/session"
	"github.com/mmynk/tabsplit/internal/storage"
	"github.com/mmynk/tabsplit/pkg/api"
)

var _ api.SessionServiceHandler = (*SessionService)(nil)

// SessionService implements the SessionService RPCs. Every mutation holds the
// session's lock while it loads, changes and saves the snapshot.
type SessionService struct {
	store   storage.SessionStore
	locks   locker.Locker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(store storage.SessionStore, locks locker.Locker, m *metrics.Metrics, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, locks: locks, metrics: m, logger: logger}
}

// load fetches a session owned by the caller.
func (s *SessionService) load(ctx context.Context, sessionID string) (*models.Session, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireField("session_id", sessionID); err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != userID {
		return nil, errNotOwner
	}
	return sess, nil
}

// lock takes the session's lock and records how long that took.
func (s *SessionService) lock(ctx context.Context, sessionID string) (func(), error) {
	start := time.Now()
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	s.metrics.LockWait.Observe(time.Since(start).Seconds())
	return unlock, nil
}

// update applies fn to the stored session and saves the result. Finalized
// sessions are rejected unless allowFinalized is set. Nothing is saved when fn fails.
func (s *SessionService) update(ctx context.Context, sessionID string, allowFinalized bool, fn func(*models.Session) error) (*models.Session, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if err := requireField("session_id", sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusFinalized && !allowFinalized {
		return nil, errFinalized
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	return s.update(ctx, sessionID, false, fn)
}

func (s *SessionService) fail(procedure, sessionID string, err error) error {
	s.logger.Debug(procedure+" failed", "session_id", sessionID, "error", err)
	return connectError(err)
}

// CreateSession creates a session owned by the caller.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := session.New(toItemInputs(req.Msg.Items), req.Msg.Participants)
	if err != nil {
		return nil, s.fail("CreateSession", "", err)
	}
	session.Rename(sess, req.Msg.Name)
	sess.OwnerID = userID

	if err := s.store.CreateSession(ctx, sess); err != nil {
		s.logger.Error("CreateSession failed", "error", err)
		return nil, connectError(err)
	}
	s.metrics.SessionsCreated.Inc()
	s.logger.Info("Session created",
		"session_id", sess.ID,
		"items", len(sess.Items),
		"participants", len(sess.Participants),
	)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// GetSession returns the current snapshot of a session.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, s.fail("GetSession", req.Msg.SessionID, err)
	}
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// ListSessions returns the caller's sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, _ *connect.Request[api.ListSessionsRequest]) (*connect.Response[api.ListSessionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		s.logger.Error("ListSessions failed", "user_id", userID, "error", err)
		return nil, connectError(err)
	}

	summaries := make([]api.SessionSummary, len(sessions))
	for i, sess := range sessions {
		summaries[i] = toSummary(sess)
	}
	return connect.NewResponse(&api.ListSessionsResponse{Sessions: summaries}), nil
}

// DeleteSession removes a session and everything in it.
func (s *SessionService) DeleteSession(ctx context.Context, req *connect.Request[api.DeleteSessionRequest]) (*connect.Response[api.DeleteSessionResponse], error) {
	sessionID := req.Msg.SessionID
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if err := requireField("session_id", sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, connectError(err)
	}
	defer unlock()

	if _, err := s.load(ctx, sessionID); err != nil {
		return nil, s.fail("DeleteSession", sessionID, err)
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Error("DeleteSession failed", "session_id", sessionID, "error", err)
		return nil, connectError(err)
	}
	s.logger.Info("Session deleted", "session_id", sessionID)
	return connect.NewResponse(&api.DeleteSessionResponse{}), nil
}

// ConfigureSession sets the service fee and discount, and optionally renames.
func (s *SessionService) ConfigureSession(ctx context.Context, req *connect.Request[api.ConfigureSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		if err := session.Configure(sess, req.Msg.ServiceFeePercent, req.Msg.DiscountAmount); err != nil {
			return err
		}
		if req.Msg.Name != nil {
			session.Rename(sess, *req.Msg.Name)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("ConfigureSession", req.Msg.SessionID, err)
	}
	s.logger.Info("Session configured",
		"session_id", sess.ID,
		"service_fee_percent", sess.ServiceFeePercent,
		"discount_amount", sess.DiscountAmount,
	)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// AddItem appends an unassigned item.
func (s *SessionService) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.AddItemResponse], error) {
	var itemID string
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		item, err := session.AddItem(sess, req.Msg.Name, req.Msg.Quantity, req.Msg.UnitPrice)
		if err != nil {
			return err
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return nil, s.fail("AddItem", req.Msg.SessionID, err)
	}
	s.logger.Info("Item added", "session_id", sess.ID, "item_id", itemID)
	return connect.NewResponse(&api.AddItemResponse{ItemID: itemID, Session: toAPISession(sess)}), nil
}

// EditItem replaces an item's name, quantity and unit price.
func (s *SessionService) EditItem(ctx context.Context, req *connect.Request[api.EditItemRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		return session.EditItem(sess, req.Msg.ItemID, req.Msg.Name, req.Msg.Quantity, req.Msg.UnitPrice)
	})
	if err != nil {
		return nil, s.fail("EditItem", req.Msg.SessionID, err)
	}
	if item := sess.FindItem(req.Msg.ItemID); item != nil && item.AssignedQuantity() > item.Quantity+session.Epsilon {
		s.logger.Warn("Item assigned beyond its quantity",
			"session_id", sess.ID,
			"item_id", item.ID,
			"quantity", item.Quantity,
			"assigned", item.AssignedQuantity(),
		)
	}
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// RemoveItem deletes an item together with its assignments.
func (s *SessionService) RemoveItem(ctx context.Context, req *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		return session.RemoveItem(sess, req.Msg.ItemID)
	})
	if err != nil {
		return nil, s.fail("RemoveItem", req.Msg.SessionID, err)
	}
	s.logger.Info("Item removed", "session_id", sess.ID, "item_id", req.Msg.ItemID)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// AddParticipant adds a person by name.
func (s *SessionService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	var participantID string
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		p, err := session.AddParticipant(sess, req.Msg.Name)
		if err != nil {
			return err
		}
		participantID = p.ID
		return nil
	})
	if err != nil {
		return nil, s.fail("AddParticipant", req.Msg.SessionID, err)
	}
	s.logger.Info("Participant added", "session_id", sess.ID, "participant_id", participantID)
	return connect.NewResponse(&api.AddParticipantResponse{ParticipantID: participantID, Session: toAPISession(sess)}), nil
}

// RemoveParticipant removes a person and hands their shares to the co-assignees.
func (s *SessionService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		return session.RemoveParticipant(sess, req.Msg.ParticipantID)
	})
	if err != nil {
		return nil, s.fail("RemoveParticipant", req.Msg.SessionID, err)
	}
	s.logger.Info("Participant removed", "session_id", sess.ID, "participant_id", req.Msg.ParticipantID)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// AssignItem replaces the distribution of one item.
func (s *SessionService) AssignItem(ctx context.Context, req *connect.Request[api.AssignItemRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.mutate(ctx, req.Msg.SessionID, func(sess *models.Session) error {
		return session.AssignItem(sess, req.Msg.ItemID, toShares(req.Msg.Shares))
	})
	if err != nil {
		return nil, s.fail("AssignItem", req.Msg.SessionID, err)
	}
	s.logger.Debug("Item assigned", "session_id", sess.ID, "item_id", req.Msg.ItemID, "shares", len(req.Msg.Shares))
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// FinalizeSession locks the session against further edits.
func (s *SessionService) FinalizeSession(ctx context.Context, req *connect.Request[api.FinalizeSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.update(ctx, req.Msg.SessionID, true, func(sess *models.Session) error {
		session.Finalize(sess)
		return nil
	})
	if err != nil {
		return nil, s.fail("FinalizeSession", req.Msg.SessionID, err)
	}
	s.logger.Info("Session finalized", "session_id", sess.ID)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// ReopenSession makes a finalized session editable again.
func (s *SessionService) ReopenSession(ctx context.Context, req *connect.Request[api.ReopenSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.update(ctx, req.Msg.SessionID, true, func(sess *models.Session) error {
		session.Reopen(sess)
		return nil
	})
	if err != nil {
		return nil, s.fail("ReopenSession", req.Msg.SessionID, err)
	}
	s.logger.Info("Session reopened", "session_id", sess.ID)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(sess)}), nil
}

// GetSettlement computes what each participant owes right now.
func (s *SessionService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	sess, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, s.fail("GetSettlement", req.Msg.SessionID, err)
	}

	report := calculator.ComputeSettlement(sess)
	s.metrics.SettlementsServed.Inc()
	s.logger.Debug("Settlement computed",
		"session_id", sess.ID,
		"grand_total", report.GrandTotal,
		"percent_distributed", report.Progress.PercentDistributed,
	)
	return connect.NewResponse(toAPISettlement(report, session.Overcommitted(sess))), nil
}
