package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

// File is a local media file, keyed by its content hash. The same hash may be
// seen at multiple locations; the library tracks it once.
type File struct {
	tableName struct{} `pg:"file"`

	Hash              string   `pg:"hash,pk"`
	SizeBytes         int64    `pg:"size_bytes,use_zero"`
	Source            string   `pg:"source,use_zero"` // video quality/source, e.g. "BluRay", "DVD", "HDTV"
	AudioLanguages    []string `pg:"audio_languages,array"`
	SubtitleLanguages []string `pg:"subtitle_languages,array"`

	AddedAt time.Time `pg:"added_at,default:now()"`
}

// EpisodeFile links a file to an episode. Many-to-many: one file can cover
// several episodes and one episode can have files at several qualities.
type EpisodeFile struct {
	tableName struct{} `pg:"episode_file"`

	FileHash  string `pg:"file_hash,pk"`
	EpisodeID int64  `pg:"episode_id,pk"`
	SeriesID  int64  `pg:"series_id"`
}

func GetFilesBySeriesID(ctx context.Context, db *pg.DB, seriesID int64) ([]*File, error) {
	var files []*File
	err := db.Model(&files).
		Context(ctx).
		Join("join episode_file ef on ef.file_hash = file.hash").
		Where("ef.series_id = ?", seriesID).
		Group("file.hash").
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get files of series %v", seriesID)
	}
	return files, nil
}

func GetEpisodeFilesBySeriesID(ctx context.Context, db *pg.DB, seriesID int64) ([]*EpisodeFile, error) {
	var xrefs []*EpisodeFile
	err := db.Model(&xrefs).
		Context(ctx).
		Where("series_id = ?", seriesID).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get episode files of series %v", seriesID)
	}
	return xrefs, nil
}
