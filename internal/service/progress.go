package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/pkordes/fare-ledger/internal/amount"
)

// Progress describes how far the fares in a ticket's validity period have
// gone toward paying the ticket off.
type Progress struct {
	Fraction    float64 // in [0, 1]
	Percent     string  // Fraction formatted for the configured locale
	ProgressSum int64
	Goal        int64
	Remaining   int64 // never negative
	Label       string
}

// ProgressCalculator turns fare sums into Progress values.
type ProgressCalculator struct {
	codec   *amount.Codec
	printer *message.Printer
}

// NewProgressCalculator returns a calculator formatting amounts with codec
// and percentages for locale.
func NewProgressCalculator(codec *amount.Codec, locale language.Tag) *ProgressCalculator {
	return &ProgressCalculator{codec: codec, printer: message.NewPrinter(locale)}
}

// Compute derives progress for one ticket.
//
// With includeDeduction the goal is the full price and the deduction counts
// as already spent; without it the deduction is taken off the goal instead.
// A goal of zero or less is reached as soon as anything was spent.
func (c *ProgressCalculator) Compute(fareSum, price int64, deduction *int64, includeDeduction bool) Progress {
	var ded int64
	if deduction != nil {
		ded = *deduction
	}

	goal := price - ded
	progressSum := fareSum
	if includeDeduction {
		goal = price
		progressSum = fareSum + ded
	}

	var fraction float64
	switch {
	case goal <= 0:
		if progressSum > 0 {
			fraction = 1
		}
	case progressSum >= goal:
		fraction = 1
	case progressSum > 0:
		fraction = float64(progressSum) / float64(goal)
	}

	return Progress{
		Fraction:    fraction,
		Percent:     c.printer.Sprint(number.Percent(fraction, number.MaxFractionDigits(0))),
		ProgressSum: progressSum,
		Goal:        goal,
		Remaining:   max(goal-progressSum, 0),
		Label:       c.codec.Format(progressSum) + " / " + c.codec.FormatPrice(goal),
	}
}
