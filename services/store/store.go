package store

import (
	"context"

	"github.com/koyomi-io/koyomi/models"
)

// Store is the persistence collaborator the aggregation core runs against.
// Lookups are synchronous and keyed by integer identity; a missing entity is
// (nil, nil), never an error. Batch lookups return maps keyed by the id they
// were asked about, with absent keys meaning no rows.
type Store interface {
	// Groups.
	GroupByID(ctx context.Context, id int64) (*models.Group, error)
	GroupsByParentID(ctx context.Context, parentID int64) ([]*models.Group, error)
	TopLevelGroups(ctx context.Context) ([]*models.Group, error)
	AllGroups(ctx context.Context) ([]*models.Group, error)
	SaveGroup(ctx context.Context, g *models.Group) error

	// Series.
	SeriesByID(ctx context.Context, id int64) (*models.Series, error)
	SeriesByGroupID(ctx context.Context, groupID int64) ([]*models.Series, error)
	SaveSeries(ctx context.Context, s *models.Series) error
	TitlesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]*models.SeriesTitle, error)
	TagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error)
	CustomTagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error)

	// Episodes and files.
	EpisodesBySeriesID(ctx context.Context, seriesID int64) ([]*models.Episode, error)
	FilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.File, error)
	EpisodeFilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.EpisodeFile, error)

	// Watch records.
	GroupUser(ctx context.Context, userID, groupID int64) (*models.GroupUser, error)
	SaveGroupUser(ctx context.Context, rec *models.GroupUser) error
	SeriesUser(ctx context.Context, userID, seriesID int64) (*models.SeriesUser, error)
	SaveSeriesUser(ctx context.Context, rec *models.SeriesUser) error
	EpisodeUsersByUserAndSeries(ctx context.Context, userID, seriesID int64) ([]*models.EpisodeUser, error)

	// Votes and external catalog crossrefs.
	VotesBySeriesIDs(ctx context.Context, ids []int64) (map[int64]*models.Vote, error)
	CatalogRefsBySeriesIDs(ctx context.Context, catalog models.Catalog, ids []int64) (map[int64][]*models.CatalogRef, error)

	// Adhoc aggregation lookups.
	AudioLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error)
	SubtitleLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error)
	VideoQualityByGroupIDs(ctx context.Context, ids []int64) (map[int64][]string, error)

	// Saved filters.
	AllGroupFilters(ctx context.Context) ([]*models.GroupFilter, error)
	SaveGroupFilter(ctx context.Context, f *models.GroupFilter) error

	// Users.
	AllUsers(ctx context.Context) ([]*models.User, error)
}
