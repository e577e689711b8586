// Package results derives the end-of-run summary from recorded results.
package results

import (
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/session"
)

// DefaultNominal is the nominal points per challenge used for percentages.
const DefaultNominal = 100

// Catalog is the registry view the aggregator needs.
type Catalog interface {
	Count() int
	GetByID(id int) (model.ChallengeDescriptor, bool)
}

type threshold struct {
	min    float64
	rating model.Rating
}

// Descending; first match wins.
var ratingTable = []threshold{
	{min: 90, rating: model.RatingExcellent},
	{min: 70, rating: model.RatingGreat},
	{min: 50, rating: model.RatingGood},
}

// RatingFor maps a score percentage to a rating tier.
func RatingFor(percentage float64) model.Rating {
	for _, t := range ratingTable {
		if percentage >= t.min {
			return t.rating
		}
	}
	return model.RatingTryAgain
}

// RatingLabel returns display text for a rating.
func RatingLabel(r model.Rating) string {
	switch r {
	case model.RatingExcellent:
		return "Excellent"
	case model.RatingGreat:
		return "Great"
	case model.RatingGood:
		return "Good"
	default:
		return "Try Again"
	}
}

// Summarize builds the result-screen record. maxPossibleScore is
// count * nominal and is only used for the percentage.
func Summarize(res []model.ChallengeResult, catalog Catalog, nominal int) model.Summary {
	if nominal <= 0 {
		nominal = DefaultNominal
	}
	stats := session.StatsFor(res)
	summary := model.Summary{
		MaxPossibleScore:    catalog.Count() * nominal,
		ChallengesCompleted: stats.ChallengesCompleted,
		AverageTime:         stats.AverageTime,
		Accuracy:            stats.Accuracy,
		Breakdown:           make([]model.BreakdownRow, 0, len(res)),
	}
	for _, r := range res {
		summary.TotalScore += r.Score
		if r.Success {
			summary.Passed++
		}
		row := model.BreakdownRow{
			ChallengeID: r.ChallengeID,
			Success:     r.Success,
			TimeSpent:   r.TimeSpent,
			Score:       r.Score,
			Accuracy:    r.Accuracy,
		}
		if d, ok := catalog.GetByID(r.ChallengeID); ok {
			row.Name = d.Name
			row.MaxScore = d.MaxScore
		} else {
			row.Name = "unknown"
		}
		summary.Breakdown = append(summary.Breakdown, row)
	}
	if summary.MaxPossibleScore > 0 {
		summary.Percentage = float64(summary.TotalScore) / float64(summary.MaxPossibleScore) * 100
	}
	summary.Rating = RatingFor(summary.Percentage)
	summary.Human = summary.Rating != model.RatingTryAgain
	return summary
}
