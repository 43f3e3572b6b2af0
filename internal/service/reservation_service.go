// Package service implements the reservation lifecycle engine: submission
// with conflict detection, admin decisions, the cancellation negotiation
// and the expiry sweep.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aulabook/internal/auth"
	"aulabook/internal/domain"
	"aulabook/internal/events"
	"aulabook/internal/metrics"
	"aulabook/internal/models"
)

// Decision outcomes for Decide and ResolveCancellation.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Store combines the persistence surfaces the engine needs.
type Store interface {
	domain.ReservationRepository
	domain.RoomRepository
}

// ReservationService owns the reservation state machine. All status
// transitions go through it; the store only persists what the engine
// already validated.
type ReservationService struct {
	store  Store
	bus    *events.EventBus
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time

	// Per-room locks serialize conflict-check-then-write for one room
	// without blocking submissions for other rooms.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates the reservation engine. loc is the organization timezone used
// for day-of-week projections.
func New(store Store, bus *events.EventBus, loc *time.Location, logger zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:  store,
		bus:    bus,
		loc:    loc,
		logger: logger.With().Str("component", "reservations").Logger(),
		now:    time.Now,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// Location returns the organization timezone.
func (s *ReservationService) Location() *time.Location {
	return s.loc
}

func (s *ReservationService) lockRoom(roomID int64) func() {
	s.mu.Lock()
	lock, ok := s.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[roomID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// SubmitInput carries the requester-supplied fields of a new reservation.
type SubmitInput struct {
	RoomID           int64
	Start            time.Time
	End              time.Time
	Activity         string
	Responsible      string
	ResponsiblePhone string
	Notes            string
}

// Submit validates the request, checks the slot against approved
// reservations and persists a new PENDING reservation. The conflict check
// and the insert run under the room's lock so two concurrent submissions
// for the same room cannot both pass the check.
func (s *ReservationService) Submit(ctx context.Context, requester auth.Principal, in SubmitInput) (*models.Reservation, error) {
	if !in.End.After(in.Start) {
		metrics.IncReservationSubmitted("invalid")
		return nil, fmt.Errorf("%w: end must be after start", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Activity) == "" {
		metrics.IncReservationSubmitted("invalid")
		return nil, fmt.Errorf("%w: activity is required", domain.ErrValidation)
	}
	if _, err := s.store.GetRoom(ctx, in.RoomID); err != nil {
		return nil, err
	}

	unlock := s.lockRoom(in.RoomID)
	defer unlock()

	conflict, err := s.store.HasConflict(ctx, in.RoomID, in.Start, in.End, 0)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if conflict {
		metrics.IncReservationSubmitted("conflict")
		return nil, fmt.Errorf("room %d from %s: %w", in.RoomID, in.Start.Format(time.RFC3339), domain.ErrScheduleConflict)
	}

	res := &models.Reservation{
		RequesterID:      requester.ID,
		RequesterName:    requester.Name,
		RoomID:           in.RoomID,
		StartTime:        in.Start,
		EndTime:          in.End,
		Activity:         strings.TrimSpace(in.Activity),
		Responsible:      in.Responsible,
		ResponsiblePhone: in.ResponsiblePhone,
		Notes:            in.Notes,
		Status:           models.StatusPending,
	}
	if err := s.store.CreateReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	metrics.IncReservationSubmitted("accepted")
	s.publish(events.TypeReservationSubmitted, res)
	s.logger.Info().
		Int64("reservation_id", res.ID).
		Int64("room_id", res.RoomID).
		Int64("requester_id", requester.ID).
		Time("start", res.StartTime).
		Time("end", res.EndTime).
		Msg("reservation submitted")
	return res, nil
}

// Decide applies an admin decision to a PENDING reservation. Approval
// re-runs the conflict check excluding the reservation itself: another
// reservation may have been approved into the slot since submission.
func (s *ReservationService) Decide(ctx context.Context, admin auth.Principal, id int64, outcome, note string) (*models.Reservation, error) {
	if !admin.IsAdmin {
		return nil, fmt.Errorf("deciding reservations: %w", domain.ErrForbidden)
	}
	if outcome != DecisionApprove && outcome != DecisionReject {
		return nil, fmt.Errorf("%w: unknown outcome %q", domain.ErrValidation, outcome)
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusPending {
		return nil, fmt.Errorf("reservation %d is %s: %w", id, res.Status, domain.ErrInvalidState)
	}

	if outcome == DecisionApprove {
		unlock := s.lockRoom(res.RoomID)
		defer unlock()

		conflict, err := s.store.HasConflict(ctx, res.RoomID, res.StartTime, res.EndTime, res.ID)
		if err != nil {
			return nil, fmt.Errorf("conflict recheck: %w", err)
		}
		if conflict {
			metrics.IncAdminDecision("conflict")
			return nil, fmt.Errorf("slot taken since submission: %w", domain.ErrScheduleConflict)
		}
		if err := s.store.UpdateDecision(ctx, id, models.StatusApproved, note); err != nil {
			return nil, err
		}
		metrics.IncAdminDecision("approved")
		s.publish(events.TypeReservationApproved, res)
	} else {
		if err := s.store.UpdateDecision(ctx, id, models.StatusRejected, note); err != nil {
			return nil, err
		}
		metrics.IncAdminDecision("rejected")
		s.publish(events.TypeReservationRejected, res)
	}

	s.logger.Info().
		Int64("reservation_id", id).
		Int64("admin_id", admin.ID).
		Str("outcome", outcome).
		Msg("reservation decided")
	return s.store.GetReservation(ctx, id)
}

// Delete removes a reservation. Admins may delete anything; owners only
// requests that were never confirmed.
func (s *ReservationService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		if res.RequesterID != actor.ID {
			return fmt.Errorf("deleting reservation %d: %w", id, domain.ErrForbidden)
		}
		if !res.OwnerDeletable() {
			return fmt.Errorf("reservation %d is %s: %w", id, res.Status, domain.ErrInvalidState)
		}
	}
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return err
	}
	s.publish(events.TypeReservationDeleted, res)
	s.logger.Info().
		Int64("reservation_id", id).
		Int64("actor_id", actor.ID).
		Msg("reservation deleted")
	return nil
}

// RequestCancellation raises the cancellation flag on an APPROVED
// reservation. Re-requesting while the flag is set is a no-op; the
// returned bool reports that the request was already pending.
func (s *ReservationService) RequestCancellation(ctx context.Context, actor auth.Principal, id int64, reason string) (bool, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return false, err
	}
	if !actor.IsAdmin && res.RequesterID != actor.ID {
		return false, fmt.Errorf("cancelling reservation %d: %w", id, domain.ErrForbidden)
	}
	if res.Status != models.StatusApproved {
		return false, fmt.Errorf("reservation %d is %s: %w", id, res.Status, domain.ErrInvalidState)
	}
	if res.CancelRequested {
		return true, nil
	}
	if strings.TrimSpace(reason) == "" {
		return false, fmt.Errorf("%w: cancellation reason is required", domain.ErrValidation)
	}

	if err := s.store.SetCancelRequested(ctx, id, strings.TrimSpace(reason)); err != nil {
		return false, err
	}
	metrics.IncCancellationRequested()
	s.publish(events.TypeCancellationRequested, res)
	s.logger.Info().
		Int64("reservation_id", id).
		Int64("actor_id", actor.ID).
		Msg("cancellation requested")
	return false, nil
}

// ResolveCancellation settles a pending cancellation request. Approval
// cancels the booking; rejection keeps it active and requires a note
// explaining why.
func (s *ReservationService) ResolveCancellation(ctx context.Context, admin auth.Principal, id int64, outcome, note string) (*models.Reservation, error) {
	if !admin.IsAdmin {
		return nil, fmt.Errorf("resolving cancellations: %w", domain.ErrForbidden)
	}
	if outcome != DecisionApprove && outcome != DecisionReject {
		return nil, fmt.Errorf("%w: unknown outcome %q", domain.ErrValidation, outcome)
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.CancelRequested {
		return nil, fmt.Errorf("reservation %d has no pending cancellation: %w", id, domain.ErrInvalidState)
	}

	if outcome == DecisionApprove {
		if err := s.store.ApproveCancellation(ctx, id, admin.ID, s.now(), note); err != nil {
			return nil, err
		}
		metrics.IncCancellationResolved("approved")
		s.publish(events.TypeReservationCancelled, res)
	} else {
		if strings.TrimSpace(note) == "" {
			return nil, fmt.Errorf("%w: rejection note is required", domain.ErrValidation)
		}
		if err := s.store.RejectCancellation(ctx, id, note); err != nil {
			return nil, err
		}
		metrics.IncCancellationResolved("rejected")
	}

	s.logger.Info().
		Int64("reservation_id", id).
		Int64("admin_id", admin.ID).
		Str("outcome", outcome).
		Msg("cancellation resolved")
	return s.store.GetReservation(ctx, id)
}

// Reconcile retires APPROVED reservations whose window has elapsed. It is
// idempotent and runs before every read path, plus periodically from the
// background sweeper.
func (s *ReservationService) Reconcile(ctx context.Context) (int64, error) {
	count, err := s.store.CloseExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("close expired: %w", err)
	}
	if count > 0 {
		metrics.AddReservationsClosed(count)
		s.bus.Publish(events.Event{Type: events.TypeReservationsClosed})
		s.logger.Info().Int64("count", count).Msg("expired reservations closed")
	}
	return count, nil
}

// ListUpcoming returns the approved schedule from now on, soonest first.
func (s *ReservationService) ListUpcoming(ctx context.Context) ([]models.Reservation, error) {
	if _, err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	return s.store.ListUpcoming(ctx, s.now())
}

// ListAll returns reservation history, newest first. Admins see everything,
// requesters only their own.
func (s *ReservationService) ListAll(ctx context.Context, principal auth.Principal) ([]models.Reservation, error) {
	if _, err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	if principal.IsAdmin {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByRequester(ctx, principal.ID)
}

// ListByStatus returns reservations filtered by status, admin-only. An
// empty filter returns everything.
func (s *ReservationService) ListByStatus(ctx context.Context, admin auth.Principal, status string) ([]models.Reservation, error) {
	if !admin.IsAdmin {
		return nil, fmt.Errorf("listing by status: %w", domain.ErrForbidden)
	}
	if status != "" && !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if _, err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	if status == "" {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByStatus(ctx, status)
}

func (s *ReservationService) publish(eventType string, res *models.Reservation) {
	s.bus.Publish(events.Event{
		Type:          eventType,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
	})
}
