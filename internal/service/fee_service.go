package service

import "math"

// Per-subject monthly rates by grade. G13 is the upgrading tier.
const (
	rateUpgrading = 350
	rateGrade12   = 250
	rateDefault   = 200

	// GradeUpgrading is the matric-upgrading tier with its own rate and
	// discount percentage.
	GradeUpgrading = "G13"
)

// FeeQuote breaks down the amount due for one registration request.
type FeeQuote struct {
	Grade        string `json:"grade"`
	SubjectCount int    `json:"subject_count"`
	PerSubject   int    `json:"per_subject"`
	Subtotal     int    `json:"subtotal"`
	Discount     int    `json:"discount"`
	Total        int    `json:"total"`
}

// FeeService computes monthly fees. It is pure: the registration validator
// and the public quote endpoint must produce identical results.
type FeeService struct{}

// NewFeeService constructs a FeeService.
func NewFeeService() *FeeService {
	return &FeeService{}
}

// RateForGrade returns the per-subject monthly rate.
func (s *FeeService) RateForGrade(grade string) int {
	switch grade {
	case GradeUpgrading:
		return rateUpgrading
	case "G12":
		return rateGrade12
	default:
		return rateDefault
	}
}

// Quote computes the amount due for count subjects in one grade. Three or
// more subjects earn a discount: 10% for the upgrading tier, 5% otherwise.
// The discount is rounded half-to-even to the nearest currency unit.
func (s *FeeService) Quote(grade string, count int) FeeQuote {
	per := s.RateForGrade(grade)
	subtotal := per * count

	discount := 0
	if count >= 3 {
		pct := 0.05
		if grade == GradeUpgrading {
			pct = 0.10
		}
		discount = int(math.RoundToEven(float64(subtotal) * pct))
	}

	return FeeQuote{
		Grade:        grade,
		SubjectCount: count,
		PerSubject:   per,
		Subtotal:     subtotal,
		Discount:     discount,
		Total:        subtotal - discount,
	}
}
