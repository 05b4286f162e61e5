package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type SeriesType string

const (
	SeriesTypeTV    SeriesType = "tv"
	SeriesTypeMovie SeriesType = "movie"
	SeriesTypeOVA   SeriesType = "ova"
	SeriesTypeWeb   SeriesType = "web"
	SeriesTypeOther SeriesType = "other"
)

type Series struct {
	tableName struct{} `pg:"series,alias:ser"`

	SeriesID     int64      `pg:"series_id,pk"`
	GroupID      int64      `pg:"group_id"`
	Title        string     `pg:"title,use_zero"`
	SortTitle    string     `pg:"sort_title,use_zero"`
	NameOverride string     `pg:"name_override,use_zero"`
	Type         SeriesType `pg:"type,use_zero"`
	Restricted   bool       `pg:"restricted,use_zero"`
	Description  string     `pg:"description,use_zero"`

	AirDate *time.Time `pg:"air_date"`
	EndDate *time.Time `pg:"end_date"`

	EpisodeCountNormal  int `pg:"episode_count_normal,use_zero"`
	EpisodeCountSpecial int `pg:"episode_count_special,use_zero"`

	MissingEpisodeCount       int        `pg:"missing_episode_count,use_zero"`
	MissingEpisodeCountGroups int        `pg:"missing_episode_count_groups,use_zero"`
	LatestEpisodeAirDate      *time.Time `pg:"latest_episode_air_date"`

	// Accumulated community rating, stored x100 like vote values.
	TotalRating int64 `pg:"total_rating,use_zero"`
	TotalVotes  int   `pg:"total_votes,use_zero"`

	ContractVersion int    `pg:"contract_version,use_zero"`
	ContractBlob    []byte `pg:"contract_blob"`
	ContractSize    int    `pg:"contract_size,use_zero"`

	CreatedAt time.Time `pg:"created_at,default:now()"`
	UpdatedAt time.Time `pg:"updated_at,default:now()"`
}

// ResolvedName is the display name clients see: the user's override when one
// is set, otherwise the preferred title.
func (s *Series) ResolvedName() string {
	if s.NameOverride != "" {
		return s.NameOverride
	}
	return s.Title
}

type SeriesTitle struct {
	tableName struct{} `pg:"series_title"`

	SeriesTitleID int64  `pg:"series_title_id,pk"`
	SeriesID      int64  `pg:"series_id"`
	Title         string `pg:"title,use_zero"`
	Language      string `pg:"language,use_zero"`
	Type          string `pg:"type,use_zero"`
}

func GetSeriesByID(ctx context.Context, db *pg.DB, id int64) (*Series, error) {
	series := &Series{}
	err := db.Model(series).
		Context(ctx).
		Where("series_id = ?", id).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get series %v", id)
	}
	return series, nil
}

func GetSeriesByGroupID(ctx context.Context, db *pg.DB, groupID int64) ([]*Series, error) {
	var series []*Series
	err := db.Model(&series).
		Context(ctx).
		Where("group_id = ?", groupID).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get series of group %v", groupID)
	}
	return series, nil
}

func SaveSeries(ctx context.Context, db *pg.DB, s *Series) error {
	s.UpdatedAt = time.Now()
	if s.SeriesID == 0 {
		_, err := db.Model(s).
			Context(ctx).
			Insert()
		return errors.Wrap(err, "failed to insert series")
	}
	_, err := db.Model(s).
		Context(ctx).
		WherePK().
		Update()
	return errors.Wrapf(err, "failed to update series %v", s.SeriesID)
}

func GetTitlesBySeriesIDs(ctx context.Context, db *pg.DB, ids []int64) ([]*SeriesTitle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var titles []*SeriesTitle
	err := db.Model(&titles).
		Context(ctx).
		Where("series_id in (?)", pg.In(ids)).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series titles")
	}
	return titles, nil
}
