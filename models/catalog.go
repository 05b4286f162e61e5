package models

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type Catalog string

const (
	CatalogTvDB    Catalog = "tvdb"
	CatalogMovieDB Catalog = "moviedb"
	CatalogMAL     Catalog = "mal"
)

// CatalogRef links a local series to an entry in an external catalog.
// Metadata providers maintain these rows; the core only reads them.
type CatalogRef struct {
	tableName struct{} `pg:"catalog_ref"`

	CatalogRefID int64   `pg:"catalog_ref_id,pk"`
	Catalog      Catalog `pg:"catalog,use_zero"`
	SeriesID     int64   `pg:"series_id"`
	RemoteID     string  `pg:"remote_id,use_zero"`
	RemoteTitle  string  `pg:"remote_title,use_zero"`
}

func GetCatalogRefsBySeriesIDs(ctx context.Context, db *pg.DB, catalog Catalog, ids []int64) ([]*CatalogRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var refs []*CatalogRef
	err := db.Model(&refs).
		Context(ctx).
		Where("catalog = ? and series_id in (?)", catalog, pg.In(ids)).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %v refs", catalog)
	}
	return refs, nil
}
