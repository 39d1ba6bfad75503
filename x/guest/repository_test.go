package guest

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/internal/testutil"
)

var ctx = context.Background()
var repo Repository
var db *gorm.DB
var rdb *redis.Client
var mc *memcache.Client

const (
	testTenantID    = "b7f1d9f0-0000-4000-8000-000000000001"
	testHouseholdID = "b7f1d9f0-0000-4000-8000-000000000002"
	testUserID      = "b7f1d9f0-0000-4000-8000-000000000003"
)

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	var cleanup_rdb func()
	rdb, cleanup_rdb = testutil.CreateRDB()
	defer cleanup_rdb()

	var cleanup_mc func()
	mc, cleanup_mc = testutil.CreateMC()
	defer cleanup_mc()

	repo = NewRepository(db, rdb, mc)

	m.Run()

	log.Println("Test End")
}

func createTestGuest(t *testing.T, name, status string, visitStart time.Time) core.Guest {
	created, err := repo.Create(ctx, core.Guest{
		ID:             xid.New().String(),
		TenantID:       testTenantID,
		HouseholdID:    testHouseholdID,
		GuestName:      name,
		Purpose:        "family visit",
		VisitDateStart: visitStart,
		VisitDateEnd:   visitStart,
		Status:         status,
		CreatedBy:      testUserID,
	})
	assert.NoError(t, err)
	return created
}

func TestRepository(t *testing.T) {

	sub := rdb.Subscribe(ctx,
		core.Chan(TableName, ""),
		core.Chan(TableName, HouseholdFilter(testHouseholdID)),
	)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	assert.NoError(t, err)

	tomorrow := time.Now().AddDate(0, 0, 1)

	guest := createTestGuest(t, "Maria Santos", core.GuestStatusPending, tomorrow)
	assert.NotEmpty(t, guest.ID)
	assert.Equal(t, core.GuestStatusPending, guest.Status)

	// create fans out to both the table channel and the household channel
	received := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for len(received) < 2 {
		select {
		case msg := <-sub.Channel():
			received[msg.Channel] = true
		case <-timeout:
			t.Fatal("timed out waiting for change events")
		}
	}
	assert.True(t, received[core.Chan(TableName, "")])
	assert.True(t, received[core.Chan(TableName, HouseholdFilter(testHouseholdID))])

	// get
	fetched, err := repo.Get(ctx, guest.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, "Maria Santos", fetched.GuestName)
	}

	_, err = repo.Get(ctx, "cnonexistent0000000x")
	assert.ErrorIs(t, err, core.ErrorNotFound{})

	// update
	fetched.Purpose = "birthday party"
	updated, err := repo.Update(ctx, fetched)
	if assert.NoError(t, err) {
		assert.Equal(t, "birthday party", updated.Purpose)
	}

	createTestGuest(t, "Jose Cruz", core.GuestStatusApproved, tomorrow)
	createTestGuest(t, "Ana Dela Cruz", core.GuestStatusCompleted, tomorrow)

	// query is scoped to the household and paginated
	guests, count, err := repo.Query(ctx, testTenantID, testHouseholdID, core.GuestQuery{Page: 1, PageSize: 2})
	if assert.NoError(t, err) {
		assert.Equal(t, int64(3), count)
		assert.Len(t, guests, 2)
	}

	guests, _, err = repo.Query(ctx, testTenantID, testHouseholdID, core.GuestQuery{Page: 2, PageSize: 2})
	if assert.NoError(t, err) {
		assert.Len(t, guests, 1)
	}

	// status filter
	guests, count, err = repo.Query(ctx, testTenantID, testHouseholdID, core.GuestQuery{
		Page: 1, PageSize: 10, Status: core.GuestStatusApproved,
	})
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), count)
		assert.Equal(t, "Jose Cruz", guests[0].GuestName)
	}

	// search matches guest names case-insensitively
	guests, _, err = repo.Query(ctx, testTenantID, testHouseholdID, core.GuestQuery{
		Page: 1, PageSize: 10, Search: "cruz",
	})
	if assert.NoError(t, err) {
		assert.Len(t, guests, 2)
	}

	// another tenant sees nothing
	_, count, err = repo.Query(ctx, "b7f1d9f0-0000-4000-8000-00000000ffff", "", core.GuestQuery{Page: 1, PageSize: 10})
	if assert.NoError(t, err) {
		assert.Equal(t, int64(0), count)
	}

	// completed guests do not count against the active limit
	active, err := repo.CountActive(ctx, testHouseholdID)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(2), active)
	}

	stats, err := repo.Stats(ctx, testTenantID, testHouseholdID)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(3), stats.Total)
		assert.Equal(t, int64(1), stats.Pending)
		assert.Equal(t, int64(1), stats.Approved)
		assert.Equal(t, int64(1), stats.Completed)
	}

	// delete
	err = repo.Delete(ctx, guest)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, guest.ID)
	assert.ErrorIs(t, err, core.ErrorNotFound{})
}

func TestQueryPageCache(t *testing.T) {

	householdID := "b7f1d9f0-0000-4000-8000-000000000010"
	tomorrow := time.Now().AddDate(0, 0, 1)

	created, err := repo.Create(ctx, core.Guest{
		ID:             xid.New().String(),
		TenantID:       testTenantID,
		HouseholdID:    householdID,
		GuestName:      "Cached Guest",
		Purpose:        "delivery",
		VisitDateStart: tomorrow,
		VisitDateEnd:   tomorrow,
		Status:         core.GuestStatusPending,
		CreatedBy:      testUserID,
	})
	assert.NoError(t, err)

	// first read fills the cache
	guests, count, err := repo.Query(ctx, testTenantID, householdID, core.GuestQuery{Page: 1, PageSize: 10})
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), count)
		assert.Len(t, guests, 1)
	}
	_, err = mc.Get(pageCacheKey(householdID))
	assert.NoError(t, err)

	// a write invalidates it
	err = repo.Delete(ctx, created)
	assert.NoError(t, err)
	_, err = mc.Get(pageCacheKey(householdID))
	assert.ErrorIs(t, err, memcache.ErrCacheMiss)
}
