package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aulabook/internal/domain"
	"aulabook/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRoom(t *testing.T, db *DB, name string) *models.Room {
	t.Helper()
	room := &models.Room{Name: name, Capacity: 50}
	require.NoError(t, db.CreateRoom(context.Background(), room))
	require.NotZero(t, room.ID)
	return room
}

func newTestReservation(t *testing.T, db *DB, roomID int64, status string, start, end time.Time) *models.Reservation {
	t.Helper()
	res := &models.Reservation{
		RequesterID:   1,
		RequesterName: "user-a",
		RoomID:        roomID,
		StartTime:     start,
		EndTime:       end,
		Activity:      "weekly sync",
		Status:        models.StatusPending,
	}
	require.NoError(t, db.CreateReservation(context.Background(), res))
	if status != models.StatusPending {
		require.NoError(t, db.UpdateDecision(context.Background(), res.ID, status, ""))
		res.Status = status
	}
	return res
}

func ts(hour, min int) time.Time {
	return time.Date(2024, 6, 3, hour, min, 0, 0, time.UTC)
}

func TestCreateAndGetReservation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := &models.Reservation{
		RequesterID:      7,
		RequesterName:    "user-b",
		RoomID:           room.ID,
		StartTime:        ts(9, 0),
		EndTime:          ts(10, 0),
		Activity:         "orientation",
		Responsible:      "B. Person",
		ResponsiblePhone: "0812000",
		Notes:            "projector needed",
		Status:           models.StatusPending,
	}
	require.NoError(t, db.CreateReservation(ctx, res))
	require.NotZero(t, res.ID)

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.RequesterID, got.RequesterID)
	assert.Equal(t, room.ID, got.RoomID)
	assert.Equal(t, "Aula A", got.RoomName)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.False(t, got.CancelRequested)
	assert.True(t, got.StartTime.Equal(ts(9, 0)))
	assert.True(t, got.EndTime.Equal(ts(10, 0)))
}

func TestGetReservation_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetReservation(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHasConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")
	other := newTestRoom(t, db, "Aula B")

	approved := newTestReservation(t, db, room.ID, models.StatusApproved, ts(10, 0), ts(11, 0))

	tests := []struct {
		name     string
		roomID   int64
		start    time.Time
		end      time.Time
		exclude  int64
		expected bool
	}{
		{"overlapping interval conflicts", room.ID, ts(10, 30), ts(11, 30), 0, true},
		{"contained interval conflicts", room.ID, ts(10, 15), ts(10, 45), 0, true},
		{"identical interval conflicts", room.ID, ts(10, 0), ts(11, 0), 0, true},
		{"adjacent after is free", room.ID, ts(11, 0), ts(12, 0), 0, false},
		{"adjacent before is free", room.ID, ts(9, 0), ts(10, 0), 0, false},
		{"other room is free", other.ID, ts(10, 0), ts(11, 0), 0, false},
		{"excluding the blocker is free", room.ID, ts(10, 0), ts(11, 0), approved.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.HasConflict(ctx, tt.roomID, tt.start, tt.end, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHasConflict_IgnoresNonApproved(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	for _, status := range []string{models.StatusPending, models.StatusRejected, models.StatusCancelled, models.StatusClosed} {
		newTestReservation(t, db, room.ID, status, ts(10, 0), ts(11, 0))
	}

	got, err := db.HasConflict(ctx, room.ID, ts(10, 0), ts(11, 0), 0)
	require.NoError(t, err)
	assert.False(t, got, "only APPROVED reservations block the slot")
}

func TestCloseExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	elapsed := newTestReservation(t, db, room.ID, models.StatusApproved, ts(8, 0), ts(9, 0))
	boundary := newTestReservation(t, db, room.ID, models.StatusApproved, ts(9, 0), ts(10, 0))
	running := newTestReservation(t, db, room.ID, models.StatusApproved, ts(9, 30), ts(11, 0))
	pending := newTestReservation(t, db, room.ID, models.StatusPending, ts(7, 0), ts(8, 0))

	now := ts(10, 0)
	count, err := db.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for id, expected := range map[int64]string{
		elapsed.ID:  models.StatusClosed,
		boundary.ID: models.StatusClosed,
		running.ID:  models.StatusApproved,
		pending.ID:  models.StatusPending,
	} {
		got, err := db.GetReservation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, expected, got.Status, "reservation %d", id)
	}

	// Second sweep with the same now is a no-op.
	count, err = db.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHasConflict_OffsetIndependent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	// 09:00-10:00 at +08:00 is 01:00-02:00 UTC.
	wita := time.FixedZone("WITA", 8*60*60)
	newTestReservation(t, db, room.ID, models.StatusApproved,
		time.Date(2024, 6, 3, 9, 0, 0, 0, wita),
		time.Date(2024, 6, 3, 10, 0, 0, 0, wita))

	got, err := db.HasConflict(ctx, room.ID, ts(1, 30), ts(2, 30), 0)
	require.NoError(t, err)
	assert.True(t, got, "same instants in another offset must conflict")

	got, err = db.HasConflict(ctx, room.ID, ts(2, 0), ts(3, 0), 0)
	require.NoError(t, err)
	assert.False(t, got, "adjacent interval in another offset stays free")
}

func TestCloseExpired_OffsetIndependent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	wita := time.FixedZone("WITA", 8*60*60)
	res := newTestReservation(t, db, room.ID, models.StatusApproved,
		time.Date(2024, 6, 3, 9, 0, 0, 0, wita),
		time.Date(2024, 6, 3, 10, 0, 0, 0, wita)) // ends 02:00 UTC

	count, err := db.CloseExpired(ctx, ts(3, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Status)
}

func TestUpdateDecision_RequiresPending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := newTestReservation(t, db, room.ID, models.StatusApproved, ts(10, 0), ts(11, 0))

	err := db.UpdateDecision(ctx, res.ID, models.StatusRejected, "second writer")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestSetCancelRequested_RequiresApproved(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := newTestReservation(t, db, room.ID, models.StatusPending, ts(10, 0), ts(11, 0))
	err := db.SetCancelRequested(ctx, res.ID, "too soon")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestResolveCancellation_GuardsLostPreconditions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	// No pending flag: nothing to resolve.
	unflagged := newTestReservation(t, db, room.ID, models.StatusApproved, ts(10, 0), ts(11, 0))
	assert.ErrorIs(t, db.ApproveCancellation(ctx, unflagged.ID, 99, ts(12, 0), ""), domain.ErrInvalidState)
	assert.ErrorIs(t, db.RejectCancellation(ctx, unflagged.ID, "stands"), domain.ErrInvalidState)

	// Flagged, but the sweep closes the row before the admin resolves:
	// the resolution must not resurrect the closed reservation.
	flagged := newTestReservation(t, db, room.ID, models.StatusApproved, ts(8, 0), ts(9, 0))
	require.NoError(t, db.SetCancelRequested(ctx, flagged.ID, "event postponed"))

	count, err := db.CloseExpired(ctx, ts(9, 30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, db.ApproveCancellation(ctx, flagged.ID, 99, ts(10, 0), "ok"), domain.ErrInvalidState)
	got, err := db.GetReservation(ctx, flagged.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.Nil(t, got.CancelResolvedBy)
}

func TestCancellationUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := newTestReservation(t, db, room.ID, models.StatusApproved, ts(10, 0), ts(11, 0))

	require.NoError(t, db.SetCancelRequested(ctx, res.ID, "event postponed"))
	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.CancelRequested)
	assert.Equal(t, "event postponed", got.CancelReason)
	assert.Equal(t, models.StatusApproved, got.Status)

	resolvedAt := ts(12, 0)
	require.NoError(t, db.ApproveCancellation(ctx, res.ID, 99, resolvedAt, "ok"))
	got, err = db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.False(t, got.CancelRequested)
	require.NotNil(t, got.CancelResolvedBy)
	assert.EqualValues(t, 99, *got.CancelResolvedBy)
	require.NotNil(t, got.CancelResolvedAt)
	assert.True(t, got.CancelResolvedAt.Equal(resolvedAt))
	assert.Equal(t, "ok", got.AdminNote)
}

func TestRejectCancellation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := newTestReservation(t, db, room.ID, models.StatusApproved, ts(10, 0), ts(11, 0))
	require.NoError(t, db.SetCancelRequested(ctx, res.ID, "no longer needed"))
	require.NoError(t, db.RejectCancellation(ctx, res.ID, "booking stands"))

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.False(t, got.CancelRequested)
	assert.Equal(t, "booking stands", got.AdminNote)
	assert.Nil(t, got.CancelResolvedBy)
}

func TestListUpcoming_OrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	later := newTestReservation(t, db, room.ID, models.StatusApproved, ts(14, 0), ts(15, 0))
	sooner := newTestReservation(t, db, room.ID, models.StatusApproved, ts(11, 0), ts(12, 0))
	newTestReservation(t, db, room.ID, models.StatusApproved, ts(7, 0), ts(8, 0)) // already over
	newTestReservation(t, db, room.ID, models.StatusPending, ts(11, 0), ts(12, 0))

	got, err := db.ListUpcoming(ctx, ts(10, 0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestListByRequesterAndStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	mine := newTestReservation(t, db, room.ID, models.StatusPending, ts(9, 0), ts(10, 0))

	theirs := &models.Reservation{
		RequesterID: 2, RequesterName: "user-c", RoomID: room.ID,
		StartTime: ts(11, 0), EndTime: ts(12, 0),
		Activity: "lecture", Status: models.StatusPending,
	}
	require.NoError(t, db.CreateReservation(ctx, theirs))
	require.NoError(t, db.UpdateDecision(ctx, theirs.ID, models.StatusApproved, "fine"))

	byMe, err := db.ListByRequester(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byMe, 1)
	assert.Equal(t, mine.ID, byMe[0].ID)

	all, err := db.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved, err := db.ListByStatus(ctx, models.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, theirs.ID, approved[0].ID)
	assert.Equal(t, "fine", approved[0].AdminNote)
}

func TestDeleteReservation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := newTestRoom(t, db, "Aula A")

	res := newTestReservation(t, db, room.ID, models.StatusPending, ts(9, 0), ts(10, 0))
	require.NoError(t, db.DeleteReservation(ctx, res.ID))

	_, err := db.GetReservation(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = db.DeleteReservation(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRooms(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := newTestRoom(t, db, "Aula B")
	a := newTestRoom(t, db, "Aula A")

	got, err := db.GetRoom(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aula A", got.Name)
	assert.Equal(t, 50, got.Capacity)

	_, err = db.GetRoom(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rooms, err := db.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, a.ID, rooms[0].ID, "ordered by name")
	assert.Equal(t, b.ID, rooms[1].ID)
}
