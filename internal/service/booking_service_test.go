package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/cache"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository"
	"github.com/Freeeeeet/consultation_bot/internal/repository/memtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingFixture struct {
	schedule *memtable.Table
	requests *memtable.Table
	service  *BookingService
}

// Сейчас 30.05.2025 12:00 по Киеву; запись на 01.06.2025 10:00 в строке 2 журнала
func newBookingFixture(t *testing.T, releaseOnCancel bool) *bookingFixture {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 5, 30, 12, 0, 0, 0, loc) }

	schedule := memtable.New("Графік", repository.ScheduleColumns,
		[]string{"01.06.2025", "10:00", "Заброньовано"},
		[]string{"01.06.2025", "11:00", "Вільно"},
	)
	requests := memtable.New("Заявки", repository.RequestColumns,
		[]string{"Олена", "@olena", "Оренда", "42", "01.06.2025", "10:00", "29.05.2025 10:00:00", "+380", "Viber", "Активна"},
	)

	slotRepo := repository.NewSlotRepository(schedule, cache.NewMemory(5*time.Minute, now), repository.ScheduleOptions{
		Location: loc, WindowDays: 7, Now: now,
	}, zap.NewNop())
	requestRepo := repository.NewRequestRepository(requests, loc, now, zap.NewNop())

	return &bookingFixture{
		schedule: schedule,
		requests: requests,
		service:  NewBookingService(slotRepo, requestRepo, releaseOnCancel, zap.NewNop()),
	}
}

var olenaBooking = model.BookingRef{Row: 2, Date: "01.06.2025", Time: "10:00"}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled slot becomes free again", func(t *testing.T) {
		f := newBookingFixture(t, true)

		// Кэш видит слот занятым
		slots, err := f.service.ListFreeSlots(ctx)
		require.NoError(t, err)
		require.False(t, slots.Has("01.06.2025", "10:00"))

		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", olenaBooking)
		require.NoError(t, err)
		assert.Equal(t, CancelApplied, outcome)

		assert.Equal(t, "Вільно", f.schedule.Cell(2, 2))
		assert.Equal(t, "Скасована клієнтом", f.requests.Cell(2, 9))

		slots, err = f.service.ListFreeSlots(ctx)
		require.NoError(t, err)
		assert.True(t, slots.Has("01.06.2025", "10:00"))

		bookings, err := f.service.ActiveBookings(ctx, 42, "@olena")
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})

	t.Run("cancelled status variant", func(t *testing.T) {
		f := newBookingFixture(t, false)

		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", olenaBooking)
		require.NoError(t, err)
		assert.Equal(t, CancelApplied, outcome)
		assert.Equal(t, "Скасовано клієнтом", f.schedule.Cell(2, 2))
	})

	t.Run("slot status changed leaves ledger untouched", func(t *testing.T) {
		f := newBookingFixture(t, true)
		require.NoError(t, f.schedule.UpdateCell(ctx, 2, 2, "Вільно"))

		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", olenaBooking)
		require.NoError(t, err)
		assert.Equal(t, CancelSlotMismatch, outcome)
		assert.Equal(t, "Активна", f.requests.Cell(2, 9))
	})

	t.Run("someone else's booking", func(t *testing.T) {
		f := newBookingFixture(t, true)

		outcome, err := f.service.CancelBooking(ctx, 7, "@ivan", olenaBooking)
		require.NoError(t, err)
		assert.Equal(t, CancelNotFound, outcome)
		assert.Equal(t, "Заброньовано", f.schedule.Cell(2, 2))
	})

	t.Run("reference does not match the row", func(t *testing.T) {
		f := newBookingFixture(t, true)

		ref := olenaBooking
		ref.Time = "11:00"
		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", ref)
		require.NoError(t, err)
		assert.Equal(t, CancelNotFound, outcome)
		assert.Equal(t, "Вільно", f.schedule.Cell(3, 2))
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newBookingFixture(t, true)

		_, err := f.service.CancelBooking(ctx, 42, "@olena", olenaBooking)
		require.NoError(t, err)
		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", olenaBooking)
		require.NoError(t, err)
		assert.Equal(t, CancelNotFound, outcome)
	})

	t.Run("missing row", func(t *testing.T) {
		f := newBookingFixture(t, true)

		outcome, err := f.service.CancelBooking(ctx, 42, "@olena", model.BookingRef{Row: 10, Date: "01.06.2025", Time: "10:00"})
		require.NoError(t, err)
		assert.Equal(t, CancelNotFound, outcome)
	})
}

func TestBookingService_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, true)

	assert.True(t, f.service.ReserveSlot(ctx, "01.06.2025", "11:00"))
	assert.False(t, f.service.ReserveSlot(ctx, "01.06.2025", "11:00"))

	assert.True(t, f.service.ReleaseSlot(ctx, "01.06.2025", "11:00"))
	assert.False(t, f.service.ReleaseSlot(ctx, "01.06.2025", "11:00"))
	assert.Equal(t, "Вільно", f.schedule.Cell(3, 2))
}

func TestBookingService_SubmitContactRequest(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, true)

	req, err := f.service.SubmitContactRequest(ctx, ContactRequest{
		UserID: 42, Handle: "@olena", Name: "Олена", Phone: "+380501234567", Shared: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.RecordContactShared, req.Question)
	assert.Equal(t, 2, f.requests.Len())
	assert.Equal(t, "@olena", f.requests.Cell(3, 1))
	assert.Equal(t, model.RecordContactShared, f.requests.Cell(3, 2))
	assert.Equal(t, "+380501234567", f.requests.Cell(3, 7))

	// Заявка на звонок не считается записью на консультацию
	bookings, err := f.service.ActiveBookings(ctx, 42, "@olena")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookingService_SubmitBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, true)

	req := &model.BookingRequest{
		Name: "Олена", Contact: "@olena", Question: "Спадщина", UserID: "42",
		Date: "01.06.2025", Time: "11:00", BookingPhone: "+380", PreferredMessenger: "Zoom",
	}
	require.NoError(t, f.service.SubmitBooking(ctx, req))

	bookings, err := f.service.ActiveBookings(ctx, 42, "@olena")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "Спадщина", bookings[1].Question)
}
