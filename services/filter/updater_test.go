package filter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
	"github.com/koyomi-io/koyomi/services/store"
)

type contractsStub struct {
	c *contract.GroupContract
}

func (s *contractsStub) UserGroupContract(ctx context.Context, g *models.Group, userID int64, conds contract.ConditionSet) (*contract.GroupContract, error) {
	return s.c, nil
}

func TestUpdateGroupFilters_MembershipFollowsConditions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))

	mechaFilter := &models.GroupFilter{
		Name: "mecha",
		Conditions: []models.FilterCondition{
			{Type: string(contract.ConditionTag), Operator: OpInclude, Parameter: "mecha"},
		},
	}
	require.NoError(t, st.SaveGroupFilter(ctx, mechaFilter))

	c := &contract.GroupContract{GroupID: g.GroupID, AllTags: contract.NewStringSet("mecha")}
	u := NewUpdater(st, &contractsStub{c: c})

	changed := contract.NewConditionSet(contract.ConditionTag)
	require.NoError(t, u.UpdateGroupFilters(ctx, g, changed, nil))
	assert.True(t, mechaFilter.HasGroup(user.UserID, g.GroupID))

	// The tag disappears: the next tag-condition update evicts the group.
	c.AllTags = contract.NewStringSet()
	require.NoError(t, u.UpdateGroupFilters(ctx, g, changed, nil))
	assert.False(t, mechaFilter.HasGroup(user.UserID, g.GroupID))
}

func TestUpdateGroupFilters_SkipsUnrelatedFilters(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))

	ratingFilter := &models.GroupFilter{
		Name: "highly rated",
		Conditions: []models.FilterCondition{
			{Type: string(contract.ConditionRating), Operator: OpGreater, Parameter: "8"},
		},
	}
	require.NoError(t, st.SaveGroupFilter(ctx, ratingFilter))

	// The contract would match, but only tag conditions changed, so the
	// rating filter is not re-evaluated.
	c := &contract.GroupContract{GroupID: g.GroupID, Rating: 9.1}
	u := NewUpdater(st, &contractsStub{c: c})
	require.NoError(t, u.UpdateGroupFilters(ctx, g, contract.NewConditionSet(contract.ConditionTag), nil))
	assert.False(t, ratingFilter.HasGroup(user.UserID, g.GroupID))
}

func TestUpdateGroupFilters_AlwaysEvaluate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))

	catchAll := &models.GroupFilter{Name: "everything", AlwaysEvaluate: true}
	require.NoError(t, st.SaveGroupFilter(ctx, catchAll))

	u := NewUpdater(st, &contractsStub{c: &contract.GroupContract{GroupID: g.GroupID}})
	require.NoError(t, u.UpdateGroupFilters(ctx, g, contract.NewConditionSet(), nil))
	assert.True(t, catchAll.HasGroup(user.UserID, g.GroupID))
}

func TestUpdateGroupFilters_SingleUserOnly(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := st.AddUser(&models.User{Name: "alice"})
	bob := st.AddUser(&models.User{Name: "bob"})
	g := &models.Group{}
	require.NoError(t, st.SaveGroup(ctx, g))

	catchAll := &models.GroupFilter{Name: "everything", AlwaysEvaluate: true}
	require.NoError(t, st.SaveGroupFilter(ctx, catchAll))

	u := NewUpdater(st, &contractsStub{c: &contract.GroupContract{GroupID: g.GroupID}})
	require.NoError(t, u.UpdateGroupFilters(ctx, g, contract.NewConditionSet(), alice))
	assert.True(t, catchAll.HasGroup(alice.UserID, g.GroupID))
	assert.False(t, catchAll.HasGroup(bob.UserID, g.GroupID))
}

type perGroupStub struct{}

func (s *perGroupStub) UserGroupContract(ctx context.Context, g *models.Group, userID int64, conds contract.ConditionSet) (*contract.GroupContract, error) {
	return &contract.GroupContract{GroupID: g.GroupID}, nil
}

func TestUpdateGroupFilters_ParallelGroupsShareFilterRows(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	user := st.AddUser(&models.User{Name: "koyomi"})

	catchAll := &models.GroupFilter{Name: "everything", AlwaysEvaluate: true}
	require.NoError(t, st.SaveGroupFilter(ctx, catchAll))

	var groups []*models.Group
	for i := 0; i < 16; i++ {
		g := &models.Group{}
		require.NoError(t, st.SaveGroup(ctx, g))
		groups = append(groups, g)
	}

	// Concurrent sweeps over different groups update the same filter row;
	// no group's membership write may be lost.
	u := NewUpdater(st, &perGroupStub{})
	var wg sync.WaitGroup
	errs := make([]error, len(groups))
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g *models.Group) {
			defer wg.Done()
			errs[i] = u.UpdateGroupFilters(ctx, g, contract.NewConditionSet(), nil)
		}(i, g)
	}
	wg.Wait()

	for i, g := range groups {
		require.NoError(t, errs[i])
		assert.True(t, catchAll.HasGroup(user.UserID, g.GroupID))
	}
}

func TestRemoveGroupFromFilters(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	f := &models.GroupFilter{
		Name: "everything",
		Membership: map[int64][]int64{
			1: {10, 20},
			2: {20},
		},
	}
	require.NoError(t, st.SaveGroupFilter(ctx, f))

	u := NewUpdater(st, &contractsStub{})
	require.NoError(t, u.RemoveGroupFromFilters(ctx, 20))
	assert.True(t, f.HasGroup(1, 10))
	assert.False(t, f.HasGroup(1, 20))
	assert.False(t, f.HasGroup(2, 20))
}
