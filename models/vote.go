package models

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type VoteType string

const (
	// VoteTypePermanent is a vote on a finished series.
	VoteTypePermanent VoteType = "permanent"
	// VoteTypeTemporary is a provisional vote on a still-airing series.
	VoteTypeTemporary VoteType = "temporary"
)

// Vote is the library owner's vote for a series. Values are stored x100
// (a 8.5 vote is stored as 850).
type Vote struct {
	tableName struct{} `pg:"vote"`

	VoteID   int64    `pg:"vote_id,pk"`
	SeriesID int64    `pg:"series_id"`
	Type     VoteType `pg:"type,use_zero"`
	Value    int      `pg:"value,use_zero"`
}

func GetVotesBySeriesIDs(ctx context.Context, db *pg.DB, ids []int64) ([]*Vote, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var votes []*Vote
	err := db.Model(&votes).
		Context(ctx).
		Where("series_id in (?)", pg.In(ids)).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get votes")
	}
	return votes, nil
}
