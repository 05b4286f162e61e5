package filter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
	"github.com/koyomi-io/koyomi/services/store"
)

// UserContracts produces a group's contract overlaid with a user's watch
// state, extending conds when the user has no watch record yet.
type UserContracts interface {
	UserGroupContract(ctx context.Context, g *models.Group, userID int64, conds contract.ConditionSet) (*contract.GroupContract, error)
}

// Updater keeps the materialized membership sets of saved filters in sync
// with contract changes. Filter rows are shared across the whole library, so
// the reindex is serialized internally; callers may invoke it from parallel
// group sweeps.
type Updater struct {
	st        store.Store
	contracts UserContracts
	mux       sync.Mutex
}

func NewUpdater(st store.Store, contracts UserContracts) *Updater {
	return &Updater{st: st, contracts: contracts}
}

// UpdateGroupFilters re-evaluates the group's membership in every filter
// whose declared condition types intersect the changed set, plus the filters
// flagged always-evaluate. A nil user means every user. Only filters whose
// membership actually changed are persisted.
func (u *Updater) UpdateGroupFilters(ctx context.Context, g *models.Group, changed contract.ConditionSet, user *models.User) error {
	u.mux.Lock()
	defer u.mux.Unlock()
	filters, err := u.st.AllGroupFilters(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list filters")
	}
	if len(filters) == 0 {
		return nil
	}
	var users []*models.User
	if user != nil {
		users = []*models.User{user}
	} else {
		users, err = u.st.AllUsers(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to list users")
		}
	}

	dirty := make(map[int64]*models.GroupFilter)
	for _, usr := range users {
		conds := changed.Copy()
		c, err := u.contracts.UserGroupContract(ctx, g, usr.UserID, conds)
		if err != nil {
			return err
		}
		for _, f := range filters {
			if !f.AlwaysEvaluate && !conds.Intersects(f.ConditionTypes()) {
				continue
			}
			member := Evaluate(f, c)
			if f.SetGroup(usr.UserID, g.GroupID, member) {
				dirty[f.GroupFilterID] = f
			}
		}
	}
	for _, f := range dirty {
		if err := u.st.SaveGroupFilter(ctx, f); err != nil {
			return errors.Wrapf(err, "failed to save filter %v", f.GroupFilterID)
		}
	}
	if len(dirty) > 0 {
		log.WithField("groupID", g.GroupID).
			WithField("filters", len(dirty)).
			Debug("updated filter membership")
	}
	return nil
}

// RemoveGroupFromFilters strips a deleted group's id from every filter's
// membership sets, persisting only filters that change.
func (u *Updater) RemoveGroupFromFilters(ctx context.Context, groupID int64) error {
	u.mux.Lock()
	defer u.mux.Unlock()
	filters, err := u.st.AllGroupFilters(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list filters")
	}
	for _, f := range filters {
		if !f.RemoveGroupEverywhere(groupID) {
			continue
		}
		if err := u.st.SaveGroupFilter(ctx, f); err != nil {
			return errors.Wrapf(err, "failed to save filter %v", f.GroupFilterID)
		}
	}
	return nil
}
