package models

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type Tag struct {
	tableName struct{} `pg:"tag"`

	TagID int64  `pg:"tag_id,pk"`
	Name  string `pg:"name,use_zero"`
}

type SeriesTag struct {
	tableName struct{} `pg:"series_tag"`

	SeriesID int64 `pg:"series_id,pk"`
	TagID    int64 `pg:"tag_id,pk"`
	Weight   int   `pg:"weight,use_zero"`

	Tag *Tag `pg:"rel:has-one,fk:tag_id"`
}

// CustomTag is a user-assigned tag, separate from catalog tags.
type CustomTag struct {
	tableName struct{} `pg:"custom_tag"`

	CustomTagID int64  `pg:"custom_tag_id,pk"`
	Name        string `pg:"name,use_zero"`
}

type SeriesCustomTag struct {
	tableName struct{} `pg:"series_custom_tag"`

	SeriesID    int64 `pg:"series_id,pk"`
	CustomTagID int64 `pg:"custom_tag_id,pk"`

	CustomTag *CustomTag `pg:"rel:has-one,fk:custom_tag_id"`
}

func GetSeriesTagsBySeriesIDs(ctx context.Context, db *pg.DB, ids []int64) ([]*SeriesTag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []*SeriesTag
	err := db.Model(&tags).
		Context(ctx).
		Relation("Tag").
		Where("series_tag.series_id in (?)", pg.In(ids)).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series tags")
	}
	return tags, nil
}

func GetSeriesCustomTagsBySeriesIDs(ctx context.Context, db *pg.DB, ids []int64) ([]*SeriesCustomTag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []*SeriesCustomTag
	err := db.Model(&tags).
		Context(ctx).
		Relation("CustomTag").
		Where("series_custom_tag.series_id in (?)", pg.In(ids)).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series custom tags")
	}
	return tags, nil
}
