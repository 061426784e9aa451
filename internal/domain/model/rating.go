package model

import (
	"fmt"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
)

// Dimension identifies one of the five scored aspects of a service.
type Dimension string

const (
	DimensionAppearance  Dimension = "appearance"
	DimensionFigure      Dimension = "figure"
	DimensionService     Dimension = "service"
	DimensionAttitude    Dimension = "attitude"
	DimensionEnvironment Dimension = "environment"
)

// Dimensions lists all scoring dimensions in collection order.
var Dimensions = []Dimension{
	DimensionAppearance,
	DimensionFigure,
	DimensionService,
	DimensionAttitude,
	DimensionEnvironment,
}

var dimensionLabels = map[Dimension]string{
	DimensionAppearance:  "颜值外观",
	DimensionFigure:      "身材体型",
	DimensionService:     "服务质量",
	DimensionAttitude:    "服务态度",
	DimensionEnvironment: "环境条件",
}

// Label returns the human readable name shown in bot messages.
func (d Dimension) Label() string {
	return dimensionLabels[d]
}

const (
	// RatingMin and RatingMax bound every dimension score.
	RatingMin = 1
	RatingMax = 10
)

// Rating holds the five customer scores, each on the 1-10 scale.
type Rating struct {
	Appearance  int
	Figure      int
	Service     int
	Attitude    int
	Environment int
}

// Score returns the value for a single dimension.
func (r Rating) Score(d Dimension) int {
	switch d {
	case DimensionAppearance:
		return r.Appearance
	case DimensionFigure:
		return r.Figure
	case DimensionService:
		return r.Service
	case DimensionAttitude:
		return r.Attitude
	case DimensionEnvironment:
		return r.Environment
	}
	return 0
}

// Validate checks every dimension is within the allowed range.
func (r Rating) Validate() error {
	for _, d := range Dimensions {
		v := r.Score(d)
		if v < RatingMin || v > RatingMax {
			return fmt.Errorf("%w: %s=%d", domainErrors.ErrInvalidRating, d, v)
		}
	}
	return nil
}

// Mean computes the unweighted arithmetic mean of the five scores.
func (r Rating) Mean() float64 {
	sum := r.Appearance + r.Figure + r.Service + r.Attitude + r.Environment
	return float64(sum) / float64(len(Dimensions))
}

// RatingFromScores assembles Rating from per-dimension values.
// Missing dimensions are left at zero and fail Validate.
func RatingFromScores(scores map[Dimension]int) Rating {
	return Rating{
		Appearance:  scores[DimensionAppearance],
		Figure:      scores[DimensionFigure],
		Service:     scores[DimensionService],
		Attitude:    scores[DimensionAttitude],
		Environment: scores[DimensionEnvironment],
	}
}
