package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/store"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestUpdateGroupStats_MissingEpisodeAggregate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	top := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, top))
	child := &models.Group{ParentGroupID: &top.GroupID}
	require.NoError(t, st.SaveGroup(ctx, child))
	require.NoError(t, st.SaveSeries(ctx, &models.Series{
		GroupID:                   top.GroupID,
		MissingEpisodeCount:       2,
		MissingEpisodeCountGroups: 1,
		LatestEpisodeAirDate:      date(2004, time.March, 1),
	}))
	require.NoError(t, st.SaveSeries(ctx, &models.Series{
		GroupID:              child.GroupID,
		MissingEpisodeCount:  3,
		LatestEpisodeAirDate: date(2005, time.July, 15),
	}))

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateGroupStats(ctx, top, false, true))

	assert.Equal(t, 5, top.MissingEpisodeCount)
	assert.Equal(t, 1, top.MissingEpisodeCountGroups)
	require.NotNil(t, top.LatestEpisodeAirDate)
	assert.True(t, top.LatestEpisodeAirDate.Equal(*date(2005, time.July, 15)))
}

func TestUpdateGroupStats_MissingEpisodeAggregateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	ser := &models.Series{GroupID: g.GroupID, MissingEpisodeCount: 4}
	require.NoError(t, st.SaveSeries(ctx, ser))

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateGroupStats(ctx, g, false, true))
	before := g.MissingEpisodeCount

	// A file arrives for a previously-missing episode.
	ser.MissingEpisodeCount--
	require.NoError(t, st.SaveSeries(ctx, ser))
	require.NoError(t, agg.UpdateGroupStats(ctx, g, false, true))
	assert.Less(t, g.MissingEpisodeCount, before)
}

func TestUpdateGroupStats_WatchedStatsSumSeriesRecords(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	s1 := &models.Series{GroupID: g.GroupID}
	require.NoError(t, st.SaveSeries(ctx, s1))
	s2 := &models.Series{GroupID: g.GroupID}
	require.NoError(t, st.SaveSeries(ctx, s2))
	require.NoError(t, st.SaveSeriesUser(ctx, &models.SeriesUser{
		UserID:                user.UserID,
		SeriesID:              s1.SeriesID,
		WatchedEpisodeCount:   10,
		UnwatchedEpisodeCount: 2,
		PlayedCount:           12,
		WatchedCount:          10,
		WatchedDate:           date(2006, time.January, 2),
	}))
	require.NoError(t, st.SaveSeriesUser(ctx, &models.SeriesUser{
		UserID:              user.UserID,
		SeriesID:            s2.SeriesID,
		WatchedEpisodeCount: 5,
		PlayedCount:         5,
		WatchedCount:        5,
		StoppedCount:        1,
		WatchedDate:         date(2006, time.March, 4),
	}))

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateGroupStats(ctx, g, true, false))

	rec, err := st.GroupUser(ctx, user.UserID, g.GroupID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 15, rec.WatchedEpisodeCount)
	assert.Equal(t, 2, rec.UnwatchedEpisodeCount)
	assert.Equal(t, 17, rec.PlayedCount)
	assert.Equal(t, 15, rec.WatchedCount)
	assert.Equal(t, 1, rec.StoppedCount)
	require.NotNil(t, rec.WatchedDate)
	assert.True(t, rec.WatchedDate.Equal(*date(2006, time.March, 4)))
}

func TestUpdateGroupStats_WatchedStatsResetStaleCounters(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	// Stale record from a series that has since left the group.
	require.NoError(t, st.SaveGroupUser(ctx, &models.GroupUser{
		UserID:              user.UserID,
		GroupID:             g.GroupID,
		WatchedEpisodeCount: 99,
		IsFavorite:          true,
	}))

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateGroupStats(ctx, g, true, false))

	rec, err := st.GroupUser(ctx, user.UserID, g.GroupID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.WatchedEpisodeCount)
	// The favorite flag is user intent, not an aggregate; it survives.
	assert.True(t, rec.IsFavorite)
}

func TestUpdateGroupStats_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	ser := &models.Series{GroupID: g.GroupID, MissingEpisodeCount: 1}
	require.NoError(t, st.SaveSeries(ctx, ser))
	require.NoError(t, st.SaveSeriesUser(ctx, &models.SeriesUser{
		UserID:              user.UserID,
		SeriesID:            ser.SeriesID,
		WatchedEpisodeCount: 3,
		WatchedCount:        3,
	}))

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateGroupStats(ctx, g, true, true))
	firstMissing := g.MissingEpisodeCount
	firstRec, _ := st.GroupUser(ctx, user.UserID, g.GroupID)

	require.NoError(t, agg.UpdateGroupStats(ctx, g, true, true))
	secondRec, _ := st.GroupUser(ctx, user.UserID, g.GroupID)

	assert.Equal(t, firstMissing, g.MissingEpisodeCount)
	assert.Equal(t, firstRec.WatchedEpisodeCount, secondRec.WatchedEpisodeCount)
	assert.Equal(t, firstRec.WatchedCount, secondRec.WatchedCount)
	assert.Equal(t, firstRec.StoppedCount, secondRec.StoppedCount)
}

func TestUpdateStatsFromTopLevel_TouchesWholeTree(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	top := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, top))
	child := &models.Group{ParentGroupID: &top.GroupID}
	require.NoError(t, st.SaveGroup(ctx, child))
	require.NoError(t, st.SaveSeries(ctx, &models.Series{GroupID: child.GroupID, MissingEpisodeCount: 7}))

	agg := newAggregatorFixture(st)
	// Called on a non-top-level group, it climbs to the root first.
	require.NoError(t, agg.UpdateStatsFromTopLevel(ctx, child, false, true))

	gotChild, _ := st.GroupByID(ctx, child.GroupID)
	gotTop, _ := st.GroupByID(ctx, top.GroupID)
	assert.Equal(t, 7, gotChild.MissingEpisodeCount)
	assert.Equal(t, 7, gotTop.MissingEpisodeCount)
}

func TestBatchUpdateStats(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	agg := newAggregatorFixture(st)

	err := agg.BatchUpdateStats(ctx, nil, true, true)
	assert.Error(t, err)

	// Both flags off short-circuits without touching storage.
	require.NoError(t, agg.BatchUpdateStats(ctx, []*models.Group{{GroupID: 1}}, false, false))

	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	require.NoError(t, st.SaveSeries(ctx, &models.Series{GroupID: g.GroupID, MissingEpisodeCount: 2}))
	require.NoError(t, agg.BatchUpdateStats(ctx, []*models.Group{g}, false, true))
	assert.Equal(t, 2, g.MissingEpisodeCount)
}

func TestUpdateSeriesStats(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))
	ser := &models.Series{GroupID: g.GroupID, EpisodeCountNormal: 3}
	require.NoError(t, st.SaveSeries(ctx, ser))

	ep1 := st.AddEpisode(&models.Episode{SeriesID: ser.SeriesID, Type: models.EpisodeTypeNormal, Number: 1})
	ep2 := st.AddEpisode(&models.Episode{SeriesID: ser.SeriesID, Type: models.EpisodeTypeNormal, Number: 2})
	ep3 := st.AddEpisode(&models.Episode{SeriesID: ser.SeriesID, Type: models.EpisodeTypeNormal, Number: 3})
	st.AddFile(&models.File{Hash: "aa", Source: "DVD"}, ep1)
	st.AddFile(&models.File{Hash: "bb", Source: "DVD"}, ep2)
	// ep3 has no file: it is missing, not unwatched.
	_ = ep3

	st.SetEpisodeUser(&models.EpisodeUser{
		UserID:       user.UserID,
		EpisodeID:    ep1.EpisodeID,
		SeriesID:     ser.SeriesID,
		PlayedCount:  2,
		WatchedCount: 1,
		WatchedDate:  date(2007, time.May, 5),
	})

	agg := newAggregatorFixture(st)
	require.NoError(t, agg.UpdateSeriesStats(ctx, ser, user.UserID))

	rec, err := st.SeriesUser(ctx, user.UserID, ser.SeriesID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.WatchedEpisodeCount)
	assert.Equal(t, 1, rec.UnwatchedEpisodeCount)
	assert.Equal(t, 2, rec.PlayedCount)
	assert.Equal(t, 1, rec.WatchedCount)
	require.NotNil(t, rec.WatchedDate)
	assert.True(t, rec.WatchedDate.Equal(*date(2007, time.May, 5)))
}
