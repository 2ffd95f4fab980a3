package schedule_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/tests"
)

func classSlot(day, start, end, subject string) schedule.NewSlot {
	return schedule.NewSlot{Day: day, StartTime: start, EndTime: end, Subject: subject, TeacherID: "t1"}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"partial overlap", "09:00", "10:00", "09:30", "10:30", true},
		{"partial overlap, reversed", "09:30", "10:30", "09:00", "10:00", true},
		{"adjacent", "09:00", "10:00", "10:00", "11:00", false},
		{"adjacent, reversed", "10:00", "11:00", "09:00", "10:00", false},
		{"ends inside", "08:00", "09:30", "09:00", "10:00", true},
		{"shared start", "09:00", "09:30", "09:00", "11:00", true},
		{"contains", "08:00", "12:00", "09:00", "10:00", true},
		{"contained", "09:00", "10:00", "08:00", "12:00", true},
		{"same range", "09:00", "10:00", "09:00", "10:00", true},
		{"disjoint", "08:00", "09:00", "14:00", "15:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestStore_ReplaceSlotsForOwner(t *testing.T) {
	ctx := context.Background()
	store := schedule.NewClassStore(testutil.NewKV(), new(testutil.Logger))
	require.NoError(t, store.Init(ctx))

	tests := []struct {
		name      string
		slots     []schedule.NewSlot
		wantErr   error
		wantField string
	}{
		{name: "empty batch", wantErr: schedule.ErrNoSlots},
		{
			name:    "overlap on the same day",
			slots:   []schedule.NewSlot{classSlot("Lundi", "09:00", "10:00", "Maths"), classSlot("Lundi", "09:30", "10:30", "Français")},
			wantErr: schedule.ErrConflict,
		},
		{
			name:      "start after end",
			slots:     []schedule.NewSlot{classSlot("Mardi", "11:00", "10:00", "Maths")},
			wantField: "slots[0].end_time",
		},
		{
			name:      "unknown day",
			slots:     []schedule.NewSlot{classSlot("Dimanche", "09:00", "10:00", "Maths")},
			wantField: "slots[0].day",
		},
		{
			name:      "off grid time",
			slots:     []schedule.NewSlot{classSlot("Lundi", "09:00", "10:00", "Maths"), classSlot("Lundi", "10:15", "11:00", "Maths")},
			wantField: "slots[1].start_time",
		},
		{
			name:      "no subject",
			slots:     []schedule.NewSlot{classSlot("Lundi", "09:00", "10:00", " ")},
			wantField: "slots[0].subject",
		},
		{
			name:      "no teacher",
			slots:     []schedule.NewSlot{{Day: "Lundi", StartTime: "09:00", EndTime: "10:00", Subject: "Maths"}},
			wantField: "slots[0].teacher_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.ReplaceSlotsForOwner(ctx, "c1", tt.slots)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
			if tt.wantField != "" {
				require.NotEmpty(t, verr.Fields)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			}
			assert.Empty(t, store.List())
		})
	}

	t.Run("adjacent slots and other days are accepted", func(t *testing.T) {
		added, err := store.ReplaceSlotsForOwner(ctx, "c1", []schedule.NewSlot{
			classSlot("Lundi", "09:00", "10:00", "Maths"),
			classSlot("Lundi", "10:00", "11:00", "Français"),
			classSlot("Mardi", "09:30", "10:30", "Histoire"),
		})
		require.NoError(t, err)
		require.Len(t, added, 3)
		for _, slot := range added {
			assert.True(t, strings.HasPrefix(slot.ID, "c1-"))
			assert.Equal(t, "c1", slot.ClassID)
			assert.Equal(t, "t1", slot.TeacherID)
		}
		assert.NotEqual(t, added[0].ID, added[1].ID)
		assert.Equal(t, added, store.ListByOwner("c1"))
	})

	t.Run("replaces only the owner's slots", func(t *testing.T) {
		_, err := store.ReplaceSlotsForOwner(ctx, "c2", []schedule.NewSlot{classSlot("Lundi", "09:00", "10:00", "Maths")})
		require.NoError(t, err)

		added, err := store.ReplaceSlotsForOwner(ctx, "c1", []schedule.NewSlot{classSlot("Jeudi", "14:00", "16:00", "Sport")})
		require.NoError(t, err)
		assert.Equal(t, added, store.ListByOwner("c1"))
		assert.Len(t, store.ListByOwner("c2"), 1)
		assert.Len(t, store.ListByTeacher("t1"), 2)
	})

	t.Run("rejected batch keeps the previous slots", func(t *testing.T) {
		before := store.ListByOwner("c1")
		_, err := store.ReplaceSlotsForOwner(ctx, "c1", []schedule.NewSlot{
			classSlot("Lundi", "08:00", "12:00", "Maths"),
			classSlot("Lundi", "09:00", "10:00", "Français"),
		})
		assert.True(t, errors.Is(err, schedule.ErrConflict))
		assert.Equal(t, before, store.ListByOwner("c1"))
	})
}

func TestStore_TeacherScope(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewKV()
	logger := new(testutil.Logger)
	store := schedule.NewTeacherStore(kv, logger)
	require.NoError(t, store.Init(ctx))

	_, err := store.ReplaceSlotsForOwner(ctx, "t1", []schedule.NewSlot{{Day: "Lundi", StartTime: "08:00", EndTime: "09:00", Subject: "Maths"}})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "slots[0].class_name", verr.Fields[0].Field)

	added, err := store.ReplaceSlotsForOwner(ctx, "t1", []schedule.NewSlot{
		{Day: "Vendredi", StartTime: "10:00", EndTime: "12:00", ClassName: "CM2"},
		{Day: "Lundi", StartTime: "08:00", EndTime: "09:00", ClassName: "CM1"},
	})
	require.NoError(t, err)
	for _, slot := range added {
		assert.Equal(t, "t1", slot.TeacherID)
		assert.Empty(t, slot.ClassID)
	}

	// persisted under its own key
	reloaded := schedule.NewTeacherStore(kv, logger)
	require.NoError(t, reloaded.Init(ctx))
	assert.Equal(t, added, reloaded.ListByOwner("t1"))
	classes := schedule.NewClassStore(kv, logger)
	require.NoError(t, classes.Init(ctx))
	assert.Empty(t, classes.List())

	sorted := reloaded.ListByOwner("t1")
	schedule.SortByStart(sorted)
	assert.Equal(t, "Lundi", sorted[0].Day)

	require.NoError(t, reloaded.DeleteAllForOwner(ctx, "t1"))
	assert.Empty(t, reloaded.ListByOwner("t1"))
	require.NoError(t, reloaded.DeleteAllForOwner(ctx, "unknown"))
}

func TestStore_CorruptData(t *testing.T) {
	kv := testutil.NewKV()
	logger := new(testutil.Logger)
	testutil.PutRaw(t, kv, schedule.ClassKey, `{"oops": true}`)

	store := schedule.NewClassStore(kv, logger)
	require.NoError(t, store.Init(context.Background()))
	assert.Empty(t, store.List())
	assert.Equal(t, 1, logger.Count("error"))
}

type valueKV struct {
	core.KVStore
}

func TestNewClassStore_valueKV(t *testing.T) {
	kv := valueKV{testutil.NewKV()}
	var store *schedule.Store
	require.NotPanics(t, func() { store = schedule.NewClassStore(kv, new(testutil.Logger)) })
	require.NoError(t, store.Init(context.Background()))
	_, err := store.ReplaceSlotsForOwner(context.Background(), "c1", []schedule.NewSlot{classSlot("Lundi", "08:00", "09:00", "Maths")})
	require.NoError(t, err)
	assert.Len(t, store.ListByOwner("c1"), 1)
}

func TestDayOf(t *testing.T) {
	monday := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "Lundi", schedule.DayOf(monday))
	assert.Equal(t, "Samedi", schedule.DayOf(monday.AddDate(0, 0, 5)))
	assert.Equal(t, "", schedule.DayOf(monday.AddDate(0, 0, 6)))
}
