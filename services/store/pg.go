package store

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	cs "github.com/webtor-io/common-services"

	"github.com/koyomi-io/koyomi/models"
)

// PGStore backs the Store interface with Postgres through go-pg.
type PGStore struct {
	pg *cs.PG
}

func NewPG(pg *cs.PG) *PGStore {
	return &PGStore{pg: pg}
}

func (s *PGStore) db() (*pg.DB, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errors.New("database not initialized")
	}
	return db, nil
}

func (s *PGStore) GroupByID(ctx context.Context, id int64) (*models.Group, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetGroupByID(ctx, db, id)
}

func (s *PGStore) GroupsByParentID(ctx context.Context, parentID int64) ([]*models.Group, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetGroupsByParentID(ctx, db, parentID)
}

func (s *PGStore) TopLevelGroups(ctx context.Context) ([]*models.Group, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetTopLevelGroups(ctx, db)
}

func (s *PGStore) AllGroups(ctx context.Context) ([]*models.Group, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetAllGroups(ctx, db)
}

func (s *PGStore) SaveGroup(ctx context.Context, g *models.Group) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.SaveGroup(ctx, db, g)
}

func (s *PGStore) SeriesByID(ctx context.Context, id int64) (*models.Series, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetSeriesByID(ctx, db, id)
}

func (s *PGStore) SeriesByGroupID(ctx context.Context, groupID int64) ([]*models.Series, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetSeriesByGroupID(ctx, db, groupID)
}

func (s *PGStore) SaveSeries(ctx context.Context, ser *models.Series) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.SaveSeries(ctx, db, ser)
}

func (s *PGStore) TitlesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]*models.SeriesTitle, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	titles, err := models.GetTitlesBySeriesIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]*models.SeriesTitle)
	for _, t := range titles {
		out[t.SeriesID] = append(out[t.SeriesID], t)
	}
	return out, nil
}

func (s *PGStore) TagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	tags, err := models.GetSeriesTagsBySeriesIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]string)
	for _, t := range tags {
		if t.Tag == nil {
			continue
		}
		out[t.SeriesID] = append(out[t.SeriesID], t.Tag.Name)
	}
	return out, nil
}

func (s *PGStore) CustomTagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	tags, err := models.GetSeriesCustomTagsBySeriesIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]string)
	for _, t := range tags {
		if t.CustomTag == nil {
			continue
		}
		out[t.SeriesID] = append(out[t.SeriesID], t.CustomTag.Name)
	}
	return out, nil
}

func (s *PGStore) EpisodesBySeriesID(ctx context.Context, seriesID int64) ([]*models.Episode, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetEpisodesBySeriesID(ctx, db, seriesID)
}

func (s *PGStore) FilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.File, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetFilesBySeriesID(ctx, db, seriesID)
}

func (s *PGStore) EpisodeFilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.EpisodeFile, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetEpisodeFilesBySeriesID(ctx, db, seriesID)
}

func (s *PGStore) GroupUser(ctx context.Context, userID, groupID int64) (*models.GroupUser, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetGroupUser(ctx, db, userID, groupID)
}

func (s *PGStore) SaveGroupUser(ctx context.Context, rec *models.GroupUser) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.SaveGroupUser(ctx, db, rec)
}

func (s *PGStore) SeriesUser(ctx context.Context, userID, seriesID int64) (*models.SeriesUser, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetSeriesUser(ctx, db, userID, seriesID)
}

func (s *PGStore) SaveSeriesUser(ctx context.Context, rec *models.SeriesUser) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.SaveSeriesUser(ctx, db, rec)
}

func (s *PGStore) EpisodeUsersByUserAndSeries(ctx context.Context, userID, seriesID int64) ([]*models.EpisodeUser, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetEpisodeUsersByUserAndSeries(ctx, db, userID, seriesID)
}

func (s *PGStore) VotesBySeriesIDs(ctx context.Context, ids []int64) (map[int64]*models.Vote, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	votes, err := models.GetVotesBySeriesIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Vote)
	for _, v := range votes {
		out[v.SeriesID] = v
	}
	return out, nil
}

func (s *PGStore) CatalogRefsBySeriesIDs(ctx context.Context, catalog models.Catalog, ids []int64) (map[int64][]*models.CatalogRef, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	refs, err := models.GetCatalogRefsBySeriesIDs(ctx, db, catalog, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]*models.CatalogRef)
	for _, r := range refs {
		out[r.SeriesID] = append(out[r.SeriesID], r)
	}
	return out, nil
}

func (s *PGStore) AudioLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	return s.languagesBySeriesIDs(ctx, ids, func(f *models.File) []string { return f.AudioLanguages })
}

func (s *PGStore) SubtitleLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	return s.languagesBySeriesIDs(ctx, ids, func(f *models.File) []string { return f.SubtitleLanguages })
}

func (s *PGStore) languagesBySeriesIDs(ctx context.Context, ids []int64, pick func(*models.File) []string) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, id := range ids {
		files, err := s.FilesBySeriesID(ctx, id)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, f := range files {
			for _, lang := range pick(f) {
				if _, ok := seen[lang]; ok {
					continue
				}
				seen[lang] = struct{}{}
				out[id] = append(out[id], lang)
			}
		}
	}
	return out, nil
}

// VideoQualityByGroupIDs returns the distinct file sources across each
// group's direct series.
func (s *PGStore) VideoQualityByGroupIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, groupID := range ids {
		series, err := s.SeriesByGroupID(ctx, groupID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, ser := range series {
			files, err := s.FilesBySeriesID(ctx, ser.SeriesID)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if f.Source == "" {
					continue
				}
				if _, ok := seen[f.Source]; ok {
					continue
				}
				seen[f.Source] = struct{}{}
				out[groupID] = append(out[groupID], f.Source)
			}
		}
	}
	return out, nil
}

func (s *PGStore) AllGroupFilters(ctx context.Context) ([]*models.GroupFilter, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetAllGroupFilters(ctx, db)
}

func (s *PGStore) SaveGroupFilter(ctx context.Context, f *models.GroupFilter) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.SaveGroupFilter(ctx, db, f)
}

func (s *PGStore) AllUsers(ctx context.Context) ([]*models.User, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return models.GetAllUsers(ctx, db)
}
