package stats

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koyomi-io/koyomi/models"
)

// GroupVotes holds the per-category vote averages of a group's series, on the
// client 0..10 scale. A category nobody voted in stays nil.
type GroupVotes struct {
	All       *float64
	Permanent *float64
	Temporary *float64
}

// BatchVotes computes the vote averages of every group in one pass, sharing a
// single vote lookup across the batch. seriesByGroup maps a group id to the
// series the average runs over (usually the group's whole subtree).
func (a *Aggregator) BatchVotes(ctx context.Context, seriesByGroup map[int64][]*models.Series) (map[int64]*GroupVotes, error) {
	if seriesByGroup == nil {
		return nil, errors.New("series lookup is required for batch vote computation")
	}
	var ids []int64
	for _, series := range seriesByGroup {
		for _, ser := range series {
			ids = append(ids, ser.SeriesID)
		}
	}
	votes, err := a.st.VotesBySeriesIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load votes for batch")
	}
	out := make(map[int64]*GroupVotes, len(seriesByGroup))
	for groupID, series := range seriesByGroup {
		out[groupID] = computeVotes(series, votes)
	}
	return out, nil
}

func computeVotes(series []*models.Series, votes map[int64]*models.Vote) *GroupVotes {
	var (
		allTotal, permTotal, tempTotal int64
		allCount, permCount, tempCount int
	)
	for _, ser := range series {
		v := votes[ser.SeriesID]
		if v == nil {
			continue
		}
		allTotal += int64(v.Value)
		allCount++
		switch v.Type {
		case models.VoteTypePermanent:
			permTotal += int64(v.Value)
			permCount++
		case models.VoteTypeTemporary:
			tempTotal += int64(v.Value)
			tempCount++
		}
	}
	gv := &GroupVotes{}
	if allCount > 0 {
		gv.All = average(allTotal, allCount)
	}
	if permCount > 0 {
		gv.Permanent = average(permTotal, permCount)
	}
	if tempCount > 0 {
		gv.Temporary = average(tempTotal, tempCount)
	}
	return gv
}

// average converts a sum of stored x100 vote values into the 0..10 scale.
func average(total int64, count int) *float64 {
	v := float64(total) / float64(count) / 100
	return &v
}

// GroupRating is the community rating of a group: the vote-weighted mean of
// its series' accumulated ratings. The second return is false when no series
// has any votes, so callers can tell "rated 0" from "not rated".
func GroupRating(series []*models.Series) (float64, bool) {
	var totalRating int64
	var totalVotes int
	for _, ser := range series {
		totalRating += ser.TotalRating
		totalVotes += ser.TotalVotes
	}
	if totalVotes == 0 {
		return 0, false
	}
	return float64(totalRating) / float64(totalVotes) / 100, true
}
