package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

// GroupUser is the per (user, group) watch record. Created on first access,
// rewritten by stat aggregation, never implicitly deleted.
type GroupUser struct {
	tableName struct{} `pg:"group_user"`

	UserID  int64 `pg:"user_id,pk"`
	GroupID int64 `pg:"group_id,pk"`

	IsFavorite            bool       `pg:"is_favorite,use_zero"`
	WatchedEpisodeCount   int        `pg:"watched_episode_count,use_zero"`
	UnwatchedEpisodeCount int        `pg:"unwatched_episode_count,use_zero"`
	PlayedCount           int        `pg:"played_count,use_zero"`
	WatchedCount          int        `pg:"watched_count,use_zero"`
	StoppedCount          int        `pg:"stopped_count,use_zero"`
	WatchedDate           *time.Time `pg:"watched_date"`
}

// ResetStats zeroes every aggregated counter before a recompute pass.
func (r *GroupUser) ResetStats() {
	r.WatchedEpisodeCount = 0
	r.UnwatchedEpisodeCount = 0
	r.PlayedCount = 0
	r.WatchedCount = 0
	r.StoppedCount = 0
	r.WatchedDate = nil
}

// SeriesUser is the per (user, series) watch record.
type SeriesUser struct {
	tableName struct{} `pg:"series_user"`

	UserID   int64 `pg:"user_id,pk"`
	SeriesID int64 `pg:"series_id,pk"`

	IsFavorite            bool       `pg:"is_favorite,use_zero"`
	WatchedEpisodeCount   int        `pg:"watched_episode_count,use_zero"`
	UnwatchedEpisodeCount int        `pg:"unwatched_episode_count,use_zero"`
	PlayedCount           int        `pg:"played_count,use_zero"`
	WatchedCount          int        `pg:"watched_count,use_zero"`
	StoppedCount          int        `pg:"stopped_count,use_zero"`
	WatchedDate           *time.Time `pg:"watched_date"`
}

func (r *SeriesUser) ResetStats() {
	r.WatchedEpisodeCount = 0
	r.UnwatchedEpisodeCount = 0
	r.PlayedCount = 0
	r.WatchedCount = 0
	r.StoppedCount = 0
	r.WatchedDate = nil
}

// EpisodeUser is the per (user, episode) watch record, the leaf the series
// recompute reads. Written by playback tracking, read-only here.
type EpisodeUser struct {
	tableName struct{} `pg:"episode_user"`

	UserID    int64 `pg:"user_id,pk"`
	EpisodeID int64 `pg:"episode_id,pk"`
	SeriesID  int64 `pg:"series_id"`

	PlayedCount  int        `pg:"played_count,use_zero"`
	WatchedCount int        `pg:"watched_count,use_zero"`
	StoppedCount int        `pg:"stopped_count,use_zero"`
	WatchedDate  *time.Time `pg:"watched_date"`
}

func (r *EpisodeUser) IsWatched() bool {
	return r.WatchedCount > 0 || r.WatchedDate != nil
}

func GetGroupUser(ctx context.Context, db *pg.DB, userID, groupID int64) (*GroupUser, error) {
	rec := &GroupUser{}
	err := db.Model(rec).
		Context(ctx).
		Where("user_id = ? and group_id = ?", userID, groupID).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get group user record (%v, %v)", userID, groupID)
	}
	return rec, nil
}

func SaveGroupUser(ctx context.Context, db *pg.DB, rec *GroupUser) error {
	_, err := db.Model(rec).
		Context(ctx).
		OnConflict("(user_id, group_id) DO UPDATE").
		Insert()
	return errors.Wrapf(err, "failed to save group user record (%v, %v)", rec.UserID, rec.GroupID)
}

func GetSeriesUser(ctx context.Context, db *pg.DB, userID, seriesID int64) (*SeriesUser, error) {
	rec := &SeriesUser{}
	err := db.Model(rec).
		Context(ctx).
		Where("user_id = ? and series_id = ?", userID, seriesID).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get series user record (%v, %v)", userID, seriesID)
	}
	return rec, nil
}

func SaveSeriesUser(ctx context.Context, db *pg.DB, rec *SeriesUser) error {
	_, err := db.Model(rec).
		Context(ctx).
		OnConflict("(user_id, series_id) DO UPDATE").
		Insert()
	return errors.Wrapf(err, "failed to save series user record (%v, %v)", rec.UserID, rec.SeriesID)
}

func GetEpisodeUsersByUserAndSeries(ctx context.Context, db *pg.DB, userID, seriesID int64) ([]*EpisodeUser, error) {
	var recs []*EpisodeUser
	err := db.Model(&recs).
		Context(ctx).
		Where("user_id = ? and series_id = ?", userID, seriesID).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get episode user records (%v, %v)", userID, seriesID)
	}
	return recs, nil
}
