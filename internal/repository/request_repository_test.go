package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository/memtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRequestFixture(t *testing.T, header []string, rows ...[]string) (*memtable.Table, *RequestRepository) {
	t.Helper()

	loc := kyiv(t)
	now := func() time.Time { return time.Date(2025, 5, 10, 10, 0, 0, 0, loc) }
	tbl := memtable.New("Заявки", header, rows...)
	return tbl, NewRequestRepository(tbl, loc, now, zap.NewNop())
}

func TestRequestRepository_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("full sheet", func(t *testing.T) {
		tbl, repo := newRequestFixture(t, RequestColumns)

		req := &model.BookingRequest{
			Name: "Олена", Contact: "@olena", Question: "Оренда", UserID: "42",
			Date: "11.05.2025", Time: "09:00", BookingPhone: "+380501234567", PreferredMessenger: "Viber",
		}
		require.NoError(t, repo.Append(ctx, req))

		assert.Equal(t, model.RequestStatusActive, req.Status)
		assert.Equal(t, "Олена", tbl.Cell(2, 0))
		assert.Equal(t, "10.05.2025 10:00:00", tbl.Cell(2, 6))
		assert.Equal(t, "Viber", tbl.Cell(2, 8))
		assert.Equal(t, "Активна", tbl.Cell(2, 9))
	})

	t.Run("empty sheet gets a header", func(t *testing.T) {
		tbl, repo := newRequestFixture(t, nil)

		require.NoError(t, repo.Append(ctx, &model.BookingRequest{Name: "Олена", UserID: "42", Date: "11.05.2025", Time: "09:00"}))
		require.NoError(t, repo.Append(ctx, &model.BookingRequest{Name: "Іван", UserID: "7", Date: "12.05.2025", Time: "10:00"}))

		assert.Equal(t, RequestColumns[0], tbl.Cell(1, 0))
		assert.Equal(t, 2, tbl.Len())
		assert.Equal(t, "Олена", tbl.Cell(2, 0))
		assert.Equal(t, "Іван", tbl.Cell(3, 0))

		bookings, err := repo.FindActiveForUser(ctx, 42, "ID:42")
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, 2, bookings[0].Ref().Row)
	})

	t.Run("legacy sheet keeps its column order", func(t *testing.T) {
		tbl, repo := newRequestFixture(t, []string{"Дата", "Час", "Ім'я", "Telegram ID"})

		require.NoError(t, repo.Append(ctx, &model.BookingRequest{
			Name: "Олена", UserID: "42", Date: "11.05.2025", Time: "09:00", Question: "Оренда",
		}))

		assert.Equal(t, "11.05.2025", tbl.Cell(2, 0))
		assert.Equal(t, "Олена", tbl.Cell(2, 2))
		assert.Equal(t, "42", tbl.Cell(2, 3))
	})
}

func TestRequestRepository_FindActiveForUser(t *testing.T) {
	_, repo := newRequestFixture(t, RequestColumns,
		[]string{"Олена", "@olena", "Пізніше", "42", "12.05.2025", "10:00", "", "", "", "Активна"},
		[]string{"Олена", "@olena", "Раніше", "42", "11.05.2025", "09:00", "", "", "", ""},
		[]string{"Олена", "@olena", "Скасовано", "42", "13.05.2025", "10:00", "", "", "", "Скасована клієнтом"},
		[]string{"Олена", "@olena", "Минуло", "42", "09.05.2025", "10:00", "", "", "", "Активна"},
		[]string{"Олена", "@olena", model.RecordContactTyped, "42", "", "", "", "+380", "", "Активна"},
		[]string{"Іван", "@ivan", "Чуже", "7", "12.05.2025", "11:00", "", "", "", "Активна"},
		[]string{"Олена", "@olena", "По хендлу", "@olena", "14.05.2025", "12:00", "", "", "", "Активна"},
	)

	bookings, err := repo.FindActiveForUser(context.Background(), 42, "@olena")
	require.NoError(t, err)

	require.Len(t, bookings, 3)
	assert.Equal(t, "Раніше", bookings[0].Question)
	assert.Equal(t, model.BookingRef{Row: 3, Date: "11.05.2025", Time: "09:00"}, bookings[0].Ref())
	assert.Equal(t, "Пізніше", bookings[1].Question)
	assert.Equal(t, "По хендлу", bookings[2].Question)

	// Без username совпадение только по ID
	bookings, err = repo.FindActiveForUser(context.Background(), 42, "ID:42")
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestRequestRepository_MarkCancelled(t *testing.T) {
	ctx := context.Background()

	t.Run("status column", func(t *testing.T) {
		tbl, repo := newRequestFixture(t, RequestColumns,
			[]string{"Олена", "@olena", "Оренда", "42", "12.05.2025", "10:00", "", "", "", "Активна"})

		require.NoError(t, repo.MarkCancelled(ctx, 2, "@olena"))
		assert.Equal(t, "Скасована клієнтом", tbl.Cell(2, 9))

		req, err := repo.GetByRow(ctx, 2)
		require.NoError(t, err)
		assert.False(t, IsActiveStatus(req.Status))
	})

	t.Run("annotation without status column", func(t *testing.T) {
		tbl, repo := newRequestFixture(t, []string{"Ім'я", "Питання", "Telegram ID", "Дата", "Час"},
			[]string{"Олена", "Оренда", "42", "12.05.2025", "10:00"})

		require.NoError(t, repo.MarkCancelled(ctx, 2, "@olena"))
		assert.Equal(t, "Оренда [Скасована клієнтом: @olena, 10.05.2025 10:00:00]", tbl.Cell(2, 1))

		bookings, err := repo.FindActiveForUser(ctx, 42, "@olena")
		require.NoError(t, err)
		assert.Empty(t, bookings)

		req, err := repo.GetByRow(ctx, 2)
		require.NoError(t, err)
		assert.False(t, IsActiveStatus(req.Status))
	})
}

func TestRequestRepository_GetByRow(t *testing.T) {
	_, repo := newRequestFixture(t, RequestColumns,
		[]string{"Олена", "@olena", "Оренда", "42", "1.6.2025", "9:00", "10.05.2025 09:00:00", "+380", "Zoom", "Активна"})

	req, err := repo.GetByRow(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "01.06.2025", req.Date)
	assert.Equal(t, "09:00", req.Time)
	assert.Equal(t, "Zoom", req.PreferredMessenger)
	assert.True(t, MatchesUser(req, 42, "ID:42"))
	assert.False(t, MatchesUser(req, 7, "@ivan"))

	req, err = repo.GetByRow(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, req)
}
