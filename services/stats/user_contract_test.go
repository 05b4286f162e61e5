package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
	"github.com/koyomi-io/koyomi/services/store"
)

func TestUserGroupContract_OverlaysWatchState(t *testing.T) {
	ctx := context.Background()
	f := newContractFixture()
	user := f.st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, f.st.SaveGroup(ctx, g))
	require.NoError(t, f.st.SaveSeries(ctx, &models.Series{GroupID: g.GroupID, Title: "Aria"}))
	f.rebuild(t, g)

	watched := time.Date(2008, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.st.SaveGroupUser(ctx, &models.GroupUser{
		UserID:              user.UserID,
		GroupID:             g.GroupID,
		IsFavorite:          true,
		WatchedEpisodeCount: 13,
		WatchedDate:         &watched,
	}))

	c, err := f.agg.UserGroupContract(ctx, g, user.UserID, nil)
	require.NoError(t, err)
	assert.True(t, c.IsFavorite)
	assert.Equal(t, 13, c.WatchedEpisodeCount)
	require.NotNil(t, c.WatchedDate)
	assert.True(t, c.WatchedDate.Equal(watched))
	assert.True(t, c.AllTitles.Has("Aria"))

	// The overlay must not leak into the cached snapshot.
	cached := f.groups.Get(g)
	require.NotNil(t, cached)
	assert.False(t, cached.IsFavorite)
	assert.Equal(t, 0, cached.WatchedEpisodeCount)
}

func TestUserGroupContract_MissingRecordExtendsConditions(t *testing.T) {
	ctx := context.Background()
	f := newContractFixture()
	g := &models.Group{}
	require.NoError(t, f.st.SaveGroup(ctx, g))
	f.rebuild(t, g)

	conds := contract.NewConditionSet()
	c, err := f.agg.UserGroupContract(ctx, g, 7, conds)
	require.NoError(t, err)
	assert.False(t, c.IsFavorite)
	assert.True(t, conds.Has(contract.ConditionFavorite))
	assert.True(t, conds.Has(contract.ConditionHasUnwatchedEpisodes))
	assert.True(t, conds.Has(contract.ConditionHasWatchedEpisodes))
	assert.True(t, conds.Has(contract.ConditionEpisodeWatchedDate))
}

func TestUserGroupContract_NoSnapshotYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	agg := newAggregatorFixture(st)
	g := &models.Group{GroupID: 5}
	c, err := agg.UserGroupContract(ctx, g, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(5), c.GroupID)
}

func TestUserSeriesContract(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	agg := newAggregatorFixture(st)
	ser := &models.Series{Title: "Planetes", Type: models.SeriesTypeTV, EpisodeCountNormal: 26}
	require.NoError(t, st.SaveSeries(ctx, ser))
	require.NoError(t, agg.UpdateSeriesContract(ctx, ser))
	require.NoError(t, st.SaveSeriesUser(ctx, &models.SeriesUser{
		UserID:              user.UserID,
		SeriesID:            ser.SeriesID,
		WatchedEpisodeCount: 26,
	}))

	c, err := agg.UserSeriesContract(ctx, ser, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Planetes", c.Name)
	assert.Equal(t, 26, c.EpisodeCountNormal)
	assert.Equal(t, 26, c.WatchedEpisodeCount)
}
