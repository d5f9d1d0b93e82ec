package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStatus_Matches(t *testing.T) {
	assert.True(t, SlotStatusFree.Matches("  вільно "))
	assert.True(t, SlotStatusFree.Matches("ВІЛЬНО"))
	assert.True(t, SlotStatusBooked.Matches("Заброньовано"))
	assert.False(t, SlotStatusFree.Matches("Заброньовано"))
	assert.False(t, SlotStatusFree.Matches(""))
}

func TestGroupFreeSlots(t *testing.T) {
	loc := time.UTC
	at := func(date, tm string) ScheduleSlot {
		startsAt, err := ParseSlotTime(date, tm, loc)
		require.NoError(t, err)
		return ScheduleSlot{Date: startsAt.Format(DateLayout), Time: startsAt.Format(TimeLayout), StartsAt: startsAt}
	}

	slots := GroupFreeSlots([]ScheduleSlot{
		at("11.05.2025", "09:00"),
		at("10.05.2025", "14:00"),
		at("10.05.2025", "9:30"),
		at("10.05.2025", "14:00"),
	}, time.Time{})

	assert.Equal(t, []string{"10.05.2025", "11.05.2025"}, slots.Dates())
	assert.Equal(t, []string{"09:30", "14:00"}, slots.TimesFor("10.05.2025"))
	assert.Equal(t, []string{"09:00"}, slots.TimesFor("11.5.2025"))
	assert.True(t, slots.Has("10.05.2025", "9:30"))
	assert.False(t, slots.Has("12.05.2025", "09:00"))
	assert.Nil(t, slots.TimesFor("12.05.2025"))
}

func TestFreeSlots_Clone(t *testing.T) {
	orig := FreeSlots{Days: []DaySlots{{Date: "10.05.2025", Times: []string{"09:00", "10:00"}}}}

	cp := orig.Clone()
	cp.Days[0].Times[0] = "23:00"
	cp.Days = append(cp.Days, DaySlots{Date: "11.05.2025"})

	assert.Equal(t, "09:00", orig.Days[0].Times[0])
	assert.Len(t, orig.Days, 1)
}

func TestParseSlotTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)

	got, err := ParseSlotTime(" 1.6.2025 ", "9:05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 5, 0, 0, loc), got)

	_, err = ParseSlotTime("2025-06-01", "09:00", loc)
	assert.Error(t, err)

	_, err = ParseSlotTime("01.06.2025", "дев'ята", loc)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "01.06.2025", NormalizeDate("1.6.2025"))
	assert.Equal(t, "завтра", NormalizeDate(" завтра "))
	assert.Equal(t, "09:00", NormalizeTime("9:00"))
	assert.Equal(t, "ранок", NormalizeTime("ранок"))
}

func TestUserHandle(t *testing.T) {
	assert.Equal(t, "@olena", UserHandle("olena", 42))
	assert.Equal(t, "ID:42", UserHandle("", 42))
}
