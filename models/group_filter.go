package models

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type FilterCondition struct {
	Type      string `json:"type"`
	Operator  string `json:"operator"`
	Parameter string `json:"parameter"`
}

// GroupFilter is a saved predicate over group contracts with a materialized
// per-user membership set. Membership is maintained by the filter updater,
// never evaluated at read time.
type GroupFilter struct {
	tableName struct{} `pg:"group_filter"`

	GroupFilterID int64  `pg:"group_filter_id,pk"`
	Name          string `pg:"name,use_zero"`
	// AlwaysEvaluate filters are re-evaluated on every contract change
	// regardless of which condition types changed.
	AlwaysEvaluate bool              `pg:"always_evaluate,use_zero"`
	Conditions     []FilterCondition `pg:"conditions,type:jsonb"`
	Membership     map[int64][]int64 `pg:"membership,type:jsonb"` // user id -> group ids
}

func (f *GroupFilter) ConditionTypes() []string {
	types := make([]string, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		types = append(types, c.Type)
	}
	return types
}

func (f *GroupFilter) HasGroup(userID, groupID int64) bool {
	for _, id := range f.Membership[userID] {
		if id == groupID {
			return true
		}
	}
	return false
}

// SetGroup adds or removes groupID from the user's membership set and reports
// whether anything changed.
func (f *GroupFilter) SetGroup(userID, groupID int64, member bool) bool {
	has := f.HasGroup(userID, groupID)
	if has == member {
		return false
	}
	if member {
		if f.Membership == nil {
			f.Membership = make(map[int64][]int64)
		}
		f.Membership[userID] = append(f.Membership[userID], groupID)
		return true
	}
	ids := f.Membership[userID]
	out := ids[:0]
	for _, id := range ids {
		if id != groupID {
			out = append(out, id)
		}
	}
	f.Membership[userID] = out
	return true
}

// RemoveGroupEverywhere strips groupID from every user's membership set.
func (f *GroupFilter) RemoveGroupEverywhere(groupID int64) bool {
	changed := false
	for userID := range f.Membership {
		if f.SetGroup(userID, groupID, false) {
			changed = true
		}
	}
	return changed
}

func GetAllGroupFilters(ctx context.Context, db *pg.DB) ([]*GroupFilter, error) {
	var filters []*GroupFilter
	err := db.Model(&filters).
		Context(ctx).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get group filters")
	}
	return filters, nil
}

func SaveGroupFilter(ctx context.Context, db *pg.DB, f *GroupFilter) error {
	if f.GroupFilterID == 0 {
		_, err := db.Model(f).
			Context(ctx).
			Insert()
		return errors.Wrap(err, "failed to insert group filter")
	}
	_, err := db.Model(f).
		Context(ctx).
		WherePK().
		Update()
	return errors.Wrapf(err, "failed to update group filter %v", f.GroupFilterID)
}
