package hierarchy

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/store"
)

// Resolver walks the group tree. Parent links are user data and may be
// broken or cyclic, so every traversal carries a visited set and treats a
// revisited group as the end of that branch.
type Resolver struct {
	st store.Store
}

func NewResolver(st store.Store) *Resolver {
	return &Resolver{st: st}
}

// DirectSeries returns the series directly assigned to the group, ordered by
// air date ascending with the group's default series first.
func (r *Resolver) DirectSeries(ctx context.Context, g *models.Group) ([]*models.Series, error) {
	series, err := r.st.SeriesByGroupID(ctx, g.GroupID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve series of group %v", g.GroupID)
	}
	sortSeries(series, g.DefaultSeriesID)
	return series, nil
}

// AllSeries returns the series of the group and every descendant group.
// Sorting is skipped when the caller only aggregates over the result.
func (r *Resolver) AllSeries(ctx context.Context, g *models.Group, skipSorting bool) ([]*models.Series, error) {
	var out []*models.Series
	visited := map[int64]struct{}{}
	if err := r.collectSeries(ctx, g, visited, &out); err != nil {
		return nil, err
	}
	if !skipSorting {
		sortSeries(out, g.DefaultSeriesID)
	}
	return out, nil
}

func (r *Resolver) collectSeries(ctx context.Context, g *models.Group, visited map[int64]struct{}, out *[]*models.Series) error {
	if _, ok := visited[g.GroupID]; ok {
		log.WithField("groupID", g.GroupID).Error("group hierarchy contains a cycle")
		return nil
	}
	visited[g.GroupID] = struct{}{}
	series, err := r.st.SeriesByGroupID(ctx, g.GroupID)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve series of group %v", g.GroupID)
	}
	*out = append(*out, series...)
	children, err := r.st.GroupsByParentID(ctx, g.GroupID)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve children of group %v", g.GroupID)
	}
	for _, child := range children {
		if err := r.collectSeries(ctx, child, visited, out); err != nil {
			return err
		}
	}
	return nil
}

// AllChildGroups returns every descendant group, not including g itself.
func (r *Resolver) AllChildGroups(ctx context.Context, g *models.Group) ([]*models.Group, error) {
	var out []*models.Group
	visited := map[int64]struct{}{g.GroupID: {}}
	if err := r.collectChildren(ctx, g.GroupID, visited, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) collectChildren(ctx context.Context, groupID int64, visited map[int64]struct{}, out *[]*models.Group) error {
	children, err := r.st.GroupsByParentID(ctx, groupID)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve children of group %v", groupID)
	}
	for _, child := range children {
		if _, ok := visited[child.GroupID]; ok {
			log.WithField("groupID", child.GroupID).Error("group hierarchy contains a cycle")
			continue
		}
		visited[child.GroupID] = struct{}{}
		*out = append(*out, child)
		if err := r.collectChildren(ctx, child.GroupID, visited, out); err != nil {
			return err
		}
	}
	return nil
}

// TopLevelGroup follows parent links upward until it reaches a group without
// a parent. A dangling or cyclic parent link stops the walk at the last
// resolvable group.
func (r *Resolver) TopLevelGroup(ctx context.Context, g *models.Group) (*models.Group, error) {
	cur := g
	visited := map[int64]struct{}{cur.GroupID: {}}
	for cur.ParentGroupID != nil {
		parent, err := r.st.GroupByID(ctx, *cur.ParentGroupID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve parent of group %v", cur.GroupID)
		}
		if parent == nil {
			log.WithField("groupID", cur.GroupID).Warn("group has a dangling parent link")
			return cur, nil
		}
		if _, ok := visited[parent.GroupID]; ok {
			log.WithField("groupID", parent.GroupID).Error("group hierarchy contains a cycle")
			return cur, nil
		}
		visited[parent.GroupID] = struct{}{}
		cur = parent
	}
	return cur, nil
}

// sortSeries orders by air date ascending with unknown dates last, then
// moves the default series to the front.
func sortSeries(series []*models.Series, defaultSeriesID *int64) {
	sort.SliceStable(series, func(i, j int) bool {
		a, b := series[i].AirDate, series[j].AirDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	if defaultSeriesID == nil {
		return
	}
	for i, s := range series {
		if s.SeriesID == *defaultSeriesID && i > 0 {
			copy(series[1:i+1], series[:i])
			series[0] = s
			break
		}
	}
}
