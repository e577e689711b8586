// Package history builds and renders summaries of past runs.
package history

import (
	"context"

	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Runs       []model.RunRecord
	Challenges []model.ChallengeAggregate
}

// BuildReport loads runs matching filter and aggregates their challenge rows.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter) (Report, error) {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	challenges, err := st.ListChallengeAggregates(ctx, runIDs(runs))
	if err != nil {
		return Report{}, err
	}
	return Report{Runs: runs, Challenges: challenges}, nil
}

func runIDs(runs []model.RunRecord) []int64 {
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

// Percentages returns each run's score percentage in order.
func Percentages(runs []model.RunRecord) []float64 {
	out := make([]float64, len(runs))
	for i, r := range runs {
		out[i] = r.Percentage
	}
	return out
}

// Overview is the headline numbers over a set of runs.
type Overview struct {
	Runs       int
	AvgPercent float64
	BestPct    float64
	Human      int
	LastRating model.Rating
}

// Summarize computes the overview for runs.
func Summarize(runs []model.RunRecord) Overview {
	var o Overview
	if len(runs) == 0 {
		return o
	}
	o.Runs = len(runs)
	var total float64
	for _, r := range runs {
		total += r.Percentage
		if r.Percentage > o.BestPct {
			o.BestPct = r.Percentage
		}
		if r.Rating != model.RatingTryAgain {
			o.Human++
		}
	}
	o.AvgPercent = total / float64(len(runs))
	o.LastRating = runs[len(runs)-1].Rating
	return o
}

// PassRate returns passes / attempts in [0,1].
func PassRate(agg model.ChallengeAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return float64(agg.Passes) / float64(agg.Attempts)
}

// AvgTime returns the mean seconds spent per attempt.
func AvgTime(agg model.ChallengeAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return agg.TimeSpentSum / float64(agg.Attempts)
}

// AvgScore returns the mean score per attempt.
func AvgScore(agg model.ChallengeAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return float64(agg.ScoreSum) / float64(agg.Attempts)
}
