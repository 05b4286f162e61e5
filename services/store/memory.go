package store

import (
	"context"
	"sync"

	"github.com/koyomi-io/koyomi/models"
)

type userEntityKey struct {
	userID   int64
	entityID int64
}

// Memory is an in-memory Store used by tests and fixtures.
type Memory struct {
	mu sync.RWMutex

	groups       map[int64]*models.Group
	series       map[int64]*models.Series
	titles       map[int64][]*models.SeriesTitle
	tags         map[int64][]string
	customTags   map[int64][]string
	episodes     map[int64][]*models.Episode
	files        map[string]*models.File
	episodeFiles map[int64][]*models.EpisodeFile
	groupUsers   map[userEntityKey]*models.GroupUser
	seriesUsers  map[userEntityKey]*models.SeriesUser
	episodeUsers map[userEntityKey][]*models.EpisodeUser
	votes        map[int64]*models.Vote
	catalogRefs  map[models.Catalog]map[int64][]*models.CatalogRef
	filters      map[int64]*models.GroupFilter
	users        []*models.User

	nextID int64
}

func NewMemory() *Memory {
	return &Memory{
		groups:       make(map[int64]*models.Group),
		series:       make(map[int64]*models.Series),
		titles:       make(map[int64][]*models.SeriesTitle),
		tags:         make(map[int64][]string),
		customTags:   make(map[int64][]string),
		episodes:     make(map[int64][]*models.Episode),
		files:        make(map[string]*models.File),
		episodeFiles: make(map[int64][]*models.EpisodeFile),
		groupUsers:   make(map[userEntityKey]*models.GroupUser),
		seriesUsers:  make(map[userEntityKey]*models.SeriesUser),
		episodeUsers: make(map[userEntityKey][]*models.EpisodeUser),
		votes:        make(map[int64]*models.Vote),
		catalogRefs:  make(map[models.Catalog]map[int64][]*models.CatalogRef),
		filters:      make(map[int64]*models.GroupFilter),
	}
}

func (s *Memory) nextIdentity() int64 {
	s.nextID++
	return s.nextID
}

func (s *Memory) GroupByID(ctx context.Context, id int64) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[id], nil
}

func (s *Memory) GroupsByParentID(ctx context.Context, parentID int64) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Group
	for _, g := range s.groups {
		if g.ParentGroupID != nil && *g.ParentGroupID == parentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Memory) TopLevelGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Group
	for _, g := range s.groups {
		if g.ParentGroupID == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Memory) AllGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out, nil
}

func (s *Memory) SaveGroup(ctx context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.GroupID == 0 {
		g.GroupID = s.nextIdentity()
	}
	s.groups[g.GroupID] = g
	return nil
}

func (s *Memory) SeriesByID(ctx context.Context, id int64) (*models.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series[id], nil
}

func (s *Memory) SeriesByGroupID(ctx context.Context, groupID int64) ([]*models.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Series
	for _, ser := range s.series {
		if ser.GroupID == groupID {
			out = append(out, ser)
		}
	}
	return out, nil
}

func (s *Memory) SaveSeries(ctx context.Context, ser *models.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ser.SeriesID == 0 {
		ser.SeriesID = s.nextIdentity()
	}
	s.series[ser.SeriesID] = ser
	return nil
}

func (s *Memory) TitlesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]*models.SeriesTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]*models.SeriesTitle)
	for _, id := range ids {
		if titles := s.titles[id]; len(titles) > 0 {
			out[id] = titles
		}
	}
	return out, nil
}

func (s *Memory) TagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]string)
	for _, id := range ids {
		if tags := s.tags[id]; len(tags) > 0 {
			out[id] = tags
		}
	}
	return out, nil
}

func (s *Memory) CustomTagsBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]string)
	for _, id := range ids {
		if tags := s.customTags[id]; len(tags) > 0 {
			out[id] = tags
		}
	}
	return out, nil
}

func (s *Memory) EpisodesBySeriesID(ctx context.Context, seriesID int64) ([]*models.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.episodes[seriesID], nil
}

func (s *Memory) FilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []*models.File
	for _, xref := range s.episodeFiles[seriesID] {
		if _, ok := seen[xref.FileHash]; ok {
			continue
		}
		seen[xref.FileHash] = struct{}{}
		if f := s.files[xref.FileHash]; f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) EpisodeFilesBySeriesID(ctx context.Context, seriesID int64) ([]*models.EpisodeFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.episodeFiles[seriesID], nil
}

func (s *Memory) GroupUser(ctx context.Context, userID, groupID int64) (*models.GroupUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupUsers[userEntityKey{userID, groupID}], nil
}

func (s *Memory) SaveGroupUser(ctx context.Context, rec *models.GroupUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupUsers[userEntityKey{rec.UserID, rec.GroupID}] = rec
	return nil
}

func (s *Memory) SeriesUser(ctx context.Context, userID, seriesID int64) (*models.SeriesUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seriesUsers[userEntityKey{userID, seriesID}], nil
}

func (s *Memory) SaveSeriesUser(ctx context.Context, rec *models.SeriesUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seriesUsers[userEntityKey{rec.UserID, rec.SeriesID}] = rec
	return nil
}

func (s *Memory) EpisodeUsersByUserAndSeries(ctx context.Context, userID, seriesID int64) ([]*models.EpisodeUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.episodeUsers[userEntityKey{userID, seriesID}], nil
}

func (s *Memory) VotesBySeriesIDs(ctx context.Context, ids []int64) (map[int64]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]*models.Vote)
	for _, id := range ids {
		if v := s.votes[id]; v != nil {
			out[id] = v
		}
	}
	return out, nil
}

func (s *Memory) CatalogRefsBySeriesIDs(ctx context.Context, catalog models.Catalog, ids []int64) (map[int64][]*models.CatalogRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]*models.CatalogRef)
	for _, id := range ids {
		if refs := s.catalogRefs[catalog][id]; len(refs) > 0 {
			out[id] = refs
		}
	}
	return out, nil
}

func (s *Memory) AudioLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	return s.languages(ctx, ids, func(f *models.File) []string { return f.AudioLanguages })
}

func (s *Memory) SubtitleLanguagesBySeriesIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	return s.languages(ctx, ids, func(f *models.File) []string { return f.SubtitleLanguages })
}

func (s *Memory) languages(ctx context.Context, ids []int64, pick func(*models.File) []string) (map[int64][]string, error) {
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

func (s *Memory) VideoQualityByGroupIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
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

func (s *Memory) AllGroupFilters(ctx context.Context) ([]*models.GroupFilter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.GroupFilter, 0, len(s.filters))
	for _, f := range s.filters {
		out = append(out, f)
	}
	return out, nil
}

func (s *Memory) SaveGroupFilter(ctx context.Context, f *models.GroupFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.GroupFilterID == 0 {
		f.GroupFilterID = s.nextIdentity()
	}
	s.filters[f.GroupFilterID] = f
	return nil
}

func (s *Memory) AllUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users, nil
}

// Fixture helpers.

func (s *Memory) AddUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.UserID == 0 {
		u.UserID = s.nextIdentity()
	}
	s.users = append(s.users, u)
	return u
}

func (s *Memory) AddTitle(seriesID int64, title *models.SeriesTitle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title.SeriesID = seriesID
	s.titles[seriesID] = append(s.titles[seriesID], title)
}

func (s *Memory) AddTags(seriesID int64, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[seriesID] = append(s.tags[seriesID], names...)
}

func (s *Memory) AddCustomTags(seriesID int64, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customTags[seriesID] = append(s.customTags[seriesID], names...)
}

func (s *Memory) AddEpisode(ep *models.Episode) *models.Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ep.EpisodeID == 0 {
		ep.EpisodeID = s.nextIdentity()
	}
	s.episodes[ep.SeriesID] = append(s.episodes[ep.SeriesID], ep)
	return ep
}

// AddFile registers a file and crossrefs it to the given episodes.
func (s *Memory) AddFile(f *models.File, episodes ...*models.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.Hash] = f
	for _, ep := range episodes {
		s.episodeFiles[ep.SeriesID] = append(s.episodeFiles[ep.SeriesID], &models.EpisodeFile{
			FileHash:  f.Hash,
			EpisodeID: ep.EpisodeID,
			SeriesID:  ep.SeriesID,
		})
	}
}

func (s *Memory) RemoveFile(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, hash)
	for seriesID, xrefs := range s.episodeFiles {
		out := xrefs[:0]
		for _, x := range xrefs {
			if x.FileHash != hash {
				out = append(out, x)
			}
		}
		s.episodeFiles[seriesID] = out
	}
}

func (s *Memory) AddVote(v *models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.VoteID == 0 {
		v.VoteID = s.nextIdentity()
	}
	s.votes[v.SeriesID] = v
}

func (s *Memory) AddCatalogRef(r *models.CatalogRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CatalogRefID == 0 {
		r.CatalogRefID = s.nextIdentity()
	}
	if s.catalogRefs[r.Catalog] == nil {
		s.catalogRefs[r.Catalog] = make(map[int64][]*models.CatalogRef)
	}
	s.catalogRefs[r.Catalog][r.SeriesID] = append(s.catalogRefs[r.Catalog][r.SeriesID], r)
}

func (s *Memory) SetEpisodeUser(rec *models.EpisodeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userEntityKey{rec.UserID, rec.SeriesID}
	for i, existing := range s.episodeUsers[key] {
		if existing.EpisodeID == rec.EpisodeID {
			s.episodeUsers[key][i] = rec
			return
		}
	}
	s.episodeUsers[key] = append(s.episodeUsers[key], rec)
}
