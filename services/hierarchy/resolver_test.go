package hierarchy

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

func addGroup(t *testing.T, st *store.Memory, parentID *int64) *models.Group {
	t.Helper()
	g := &models.Group{ParentGroupID: parentID}
	require.NoError(t, st.SaveGroup(context.Background(), g))
	return g
}

func addSeries(t *testing.T, st *store.Memory, groupID int64, airDate *time.Time) *models.Series {
	t.Helper()
	ser := &models.Series{GroupID: groupID, AirDate: airDate}
	require.NoError(t, st.SaveSeries(context.Background(), ser))
	return ser
}

func TestResolver_AllSeriesCollectsSubtree(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	top := addGroup(t, st, nil)
	child := addGroup(t, st, &top.GroupID)
	grandchild := addGroup(t, st, &child.GroupID)

	s1 := addSeries(t, st, top.GroupID, date(2001, time.January, 1))
	s2 := addSeries(t, st, child.GroupID, date(2000, time.June, 1))
	s3 := addSeries(t, st, grandchild.GroupID, nil)

	r := NewResolver(st)
	series, err := r.AllSeries(ctx, top, false)
	require.NoError(t, err)
	require.Len(t, series, 3)
	// Air-date ascending, unknown dates last.
	assert.Equal(t, s2.SeriesID, series[0].SeriesID)
	assert.Equal(t, s1.SeriesID, series[1].SeriesID)
	assert.Equal(t, s3.SeriesID, series[2].SeriesID)
}

func TestResolver_DirectSeriesPutsDefaultFirst(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	g := addGroup(t, st, nil)
	addSeries(t, st, g.GroupID, date(2000, time.January, 1))
	def := addSeries(t, st, g.GroupID, date(2005, time.January, 1))
	g.DefaultSeriesID = &def.SeriesID

	r := NewResolver(st)
	series, err := r.DirectSeries(ctx, g)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, def.SeriesID, series[0].SeriesID)
}

func TestResolver_AllChildGroups(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	top := addGroup(t, st, nil)
	c1 := addGroup(t, st, &top.GroupID)
	c2 := addGroup(t, st, &top.GroupID)
	c3 := addGroup(t, st, &c1.GroupID)

	r := NewResolver(st)
	children, err := r.AllChildGroups(ctx, top)
	require.NoError(t, err)
	ids := map[int64]bool{}
	for _, g := range children {
		ids[g.GroupID] = true
	}
	assert.Len(t, children, 3)
	assert.True(t, ids[c1.GroupID])
	assert.True(t, ids[c2.GroupID])
	assert.True(t, ids[c3.GroupID])
}

func TestResolver_CyclicHierarchyTerminates(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	a := addGroup(t, st, nil)
	b := addGroup(t, st, &a.GroupID)
	// Corrupt the data: a's parent is its own descendant.
	a.ParentGroupID = &b.GroupID
	require.NoError(t, st.SaveGroup(ctx, a))
	addSeries(t, st, a.GroupID, nil)
	addSeries(t, st, b.GroupID, nil)

	r := NewResolver(st)
	series, err := r.AllSeries(ctx, a, true)
	require.NoError(t, err)
	assert.Len(t, series, 2)

	children, err := r.AllChildGroups(ctx, a)
	require.NoError(t, err)
	assert.Len(t, children, 1)

	top, err := r.TopLevelGroup(ctx, a)
	require.NoError(t, err)
	assert.NotNil(t, top)
}

func TestResolver_TopLevelGroup(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	top := addGroup(t, st, nil)
	mid := addGroup(t, st, &top.GroupID)
	leaf := addGroup(t, st, &mid.GroupID)

	r := NewResolver(st)
	got, err := r.TopLevelGroup(ctx, leaf)
	require.NoError(t, err)
	assert.Equal(t, top.GroupID, got.GroupID)

	// Dangling parent link stops at the last resolvable group.
	missing := int64(9999)
	orphan := addGroup(t, st, &missing)
	got, err = r.TopLevelGroup(ctx, orphan)
	require.NoError(t, err)
	assert.Equal(t, orphan.GroupID, got.GroupID)
}
