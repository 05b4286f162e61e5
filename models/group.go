package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type Group struct {
	tableName struct{} `pg:"anime_group,alias:grp"`

	GroupID         int64  `pg:"group_id,pk"`
	ParentGroupID   *int64 `pg:"parent_group_id"`
	Name            string `pg:"name,use_zero"`
	SortName        string `pg:"sort_name,use_zero"`
	Description     string `pg:"description,use_zero"`
	IsManuallyNamed bool   `pg:"is_manually_named,use_zero"`
	DefaultSeriesID *int64 `pg:"default_series_id"`

	MissingEpisodeCount       int        `pg:"missing_episode_count,use_zero"`
	MissingEpisodeCountGroups int        `pg:"missing_episode_count_groups,use_zero"`
	LatestEpisodeAirDate      *time.Time `pg:"latest_episode_air_date"`
	EpisodeAddedDate          *time.Time `pg:"episode_added_date"`

	ContractVersion int    `pg:"contract_version,use_zero"`
	ContractBlob    []byte `pg:"contract_blob"`
	ContractSize    int    `pg:"contract_size,use_zero"`

	CreatedAt time.Time `pg:"created_at,default:now()"`
	UpdatedAt time.Time `pg:"updated_at,default:now()"`
}

func (g *Group) HasMissingEpisodesAny() bool {
	return g.MissingEpisodeCount > 0 || g.MissingEpisodeCountGroups > 0
}

func (g *Group) IsTopLevel() bool {
	return g.ParentGroupID == nil
}

func GetGroupByID(ctx context.Context, db *pg.DB, id int64) (*Group, error) {
	group := &Group{}
	err := db.Model(group).
		Context(ctx).
		Where("group_id = ?", id).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get group %v", id)
	}
	return group, nil
}

func GetGroupsByParentID(ctx context.Context, db *pg.DB, parentID int64) ([]*Group, error) {
	var groups []*Group
	err := db.Model(&groups).
		Context(ctx).
		Where("parent_group_id = ?", parentID).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get child groups of %v", parentID)
	}
	return groups, nil
}

func GetTopLevelGroups(ctx context.Context, db *pg.DB) ([]*Group, error) {
	var groups []*Group
	err := db.Model(&groups).
		Context(ctx).
		Where("parent_group_id is null").
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top-level groups")
	}
	return groups, nil
}

func GetAllGroups(ctx context.Context, db *pg.DB) ([]*Group, error) {
	var groups []*Group
	err := db.Model(&groups).
		Context(ctx).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get groups")
	}
	return groups, nil
}

func SaveGroup(ctx context.Context, db *pg.DB, g *Group) error {
	g.UpdatedAt = time.Now()
	if g.GroupID == 0 {
		_, err := db.Model(g).
			Context(ctx).
			Insert()
		return errors.Wrap(err, "failed to insert group")
	}
	_, err := db.Model(g).
		Context(ctx).
		WherePK().
		Update()
	return errors.Wrapf(err, "failed to update group %v", g.GroupID)
}
