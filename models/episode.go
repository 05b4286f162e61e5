package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type EpisodeType string

const (
	EpisodeTypeNormal  EpisodeType = "episode"
	EpisodeTypeSpecial EpisodeType = "special"
	EpisodeTypeCredit  EpisodeType = "credit"
	EpisodeTypeTrailer EpisodeType = "trailer"
	EpisodeTypeOther   EpisodeType = "other"
)

type Episode struct {
	tableName struct{} `pg:"episode,alias:ep"`

	EpisodeID int64       `pg:"episode_id,pk"`
	SeriesID  int64       `pg:"series_id"`
	Type      EpisodeType `pg:"type,use_zero"`
	Number    int         `pg:"number,use_zero"`
	Title     string      `pg:"title,use_zero"`
	AirDate   *time.Time  `pg:"air_date"`

	CreatedAt time.Time `pg:"created_at,default:now()"`
}

func GetEpisodesBySeriesID(ctx context.Context, db *pg.DB, seriesID int64) ([]*Episode, error) {
	var episodes []*Episode
	err := db.Model(&episodes).
		Context(ctx).
		Where("series_id = ?", seriesID).
		Order("number asc").
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get episodes of series %v", seriesID)
	}
	return episodes, nil
}
