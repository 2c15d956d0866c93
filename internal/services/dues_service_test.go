package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moim/internal/core"
	"moim/internal/ports"
	"moim/internal/storage/memory"
)

func newDuesFixture(t *testing.T) (*DuesService, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	directory := memory.NewDirectory(
		ports.Member{Name: "김철수", Status: "active"},
		ports.Member{Name: "이영희", Status: "active"},
		ports.Member{Name: "박민수", Status: "inactive"},
	)
	svc := NewDuesService(store, directory, nil, testLogger())

	id, err := svc.CreateEvent(context.Background(), core.DuesEvent{
		Name:         "3월 정기 회비",
		TargetAmount: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	return svc, store, id
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewDuesService(memory.New(), memory.NewDirectory(), nil, testLogger())

	_, err := svc.CreateEvent(context.Background(), core.DuesEvent{Name: ""})
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestSeedRosterAndStats(t *testing.T) {
	svc, _, eventID := newDuesFixture(t)
	ctx := context.Background()

	ids, err := svc.SeedRoster(ctx, eventID, []string{"김철수", "이영희", "박민수"})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	roster, err := svc.ListRoster(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, roster, 3)

	// Pay in full, pay half, pay nothing.
	payments := map[string]int64{"김철수": 10000, "이영희": 5000, "박민수": 0}
	for _, due := range roster {
		rec := due.Record
		rec.PaidAmount = decimal.NewFromInt(payments[rec.MemberName])
		require.NoError(t, svc.UpdateRecord(ctx, rec))
	}

	stats, err := svc.Stats(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, stats.Collected.Equal(decimal.NewFromInt(15000)))
	assert.True(t, stats.TotalExpected.Equal(decimal.NewFromInt(30000)))
	assert.True(t, stats.Outstanding.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, 1, stats.PaidCount)
	assert.Equal(t, 3, stats.TotalCount)
	assert.InDelta(t, 33.3, stats.Rate, 0.1)
}

func TestSeedRosterConflictIsPartial(t *testing.T) {
	svc, _, eventID := newDuesFixture(t)
	ctx := context.Background()

	_, err := svc.SeedRoster(ctx, eventID, []string{"김철수"})
	require.NoError(t, err)

	ids, err := svc.SeedRoster(ctx, eventID, []string{"김철수", "이영희"})
	assert.ErrorIs(t, err, ports.ErrConflict)
	assert.Len(t, ids, 1, "non-conflicting member must still land")

	roster, err := svc.ListRoster(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestListRosterDerivesStatus(t *testing.T) {
	svc, _, eventID := newDuesFixture(t)
	ctx := context.Background()

	_, err := svc.SeedRoster(ctx, eventID, []string{"김철수"})
	require.NoError(t, err)

	roster, err := svc.ListRoster(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, core.Unpaid, roster[0].Status)
	assert.True(t, roster[0].Expected.Equal(decimal.NewFromInt(10000)))

	// Pay in full, then edit back down: status follows the numbers.
	rec := roster[0].Record
	rec.PaidAmount = decimal.NewFromInt(10000)
	require.NoError(t, svc.UpdateRecord(ctx, rec))
	roster, _ = svc.ListRoster(ctx, eventID)
	assert.Equal(t, core.Paid, roster[0].Status)

	rec = roster[0].Record
	rec.PaidAmount = decimal.NewFromInt(2000)
	require.NoError(t, svc.UpdateRecord(ctx, rec))
	roster, _ = svc.ListRoster(ctx, eventID)
	assert.Equal(t, core.Partial, roster[0].Status)
}

func TestRosterOverrideFollowsEventEdit(t *testing.T) {
	svc, _, eventID := newDuesFixture(t)
	ctx := context.Background()

	_, err := svc.SeedRoster(ctx, eventID, []string{"김철수"})
	require.NoError(t, err)

	// Raising the event target changes every member's expected amount on
	// the next read; nothing was cached.
	event, err := svc.GetEvent(ctx, eventID)
	require.NoError(t, err)
	event.TargetAmount = decimal.NewFromInt(20000)
	require.NoError(t, svc.UpdateEvent(ctx, event))

	roster, err := svc.ListRoster(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, roster[0].Expected.Equal(decimal.NewFromInt(20000)))
}

func TestStatsUnknownEvent(t *testing.T) {
	svc, _, _ := newDuesFixture(t)

	_, err := svc.Stats(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSearchMembers(t *testing.T) {
	svc, _, _ := newDuesFixture(t)

	members, err := svc.SearchMembers(context.Background(), "", "active")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
