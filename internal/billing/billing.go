// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package billing computes parking durations and fees.
package billing

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultHourlyRate is the fee per hour when none is configured.
const DefaultHourlyRate = 10.0

// ElapsedMinutes returns the fractional minutes between start and end.
// An end before start yields 0.
func ElapsedMinutes(start, end time.Time) float64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return d.Minutes()
}

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Fee returns ratePerHour * minutes / 60 rounded to two decimals.
func Fee(minutes, ratePerHour float64) float64 {
	if minutes <= 0 || ratePerHour <= 0 {
		return 0
	}
	return Round2(ratePerHour * minutes / 60)
}

// Calculator applies a fixed hourly rate and currency symbol.
type Calculator struct {
	RatePerHour float64
	Currency    string
	printer     *message.Printer
}

// NewCalculator returns a Calculator; a non-positive rate falls back to
// DefaultHourlyRate.
func NewCalculator(ratePerHour float64, currency string) *Calculator {
	if ratePerHour <= 0 {
		ratePerHour = DefaultHourlyRate
	}
	return &Calculator{
		RatePerHour: ratePerHour,
		Currency:    strings.TrimSpace(currency),
		printer:     message.NewPrinter(language.English),
	}
}

// Charge returns the elapsed minutes and fee for a stay from start to end.
func (c *Calculator) Charge(start, end time.Time) (minutes, cost float64) {
	minutes = ElapsedMinutes(start, end)
	return minutes, Fee(minutes, c.RatePerHour)
}

// Format renders an amount with grouping and two decimals, e.g. "Rs 1,234.50".
func (c *Calculator) Format(amount float64) string {
	return Format(c.printer, amount, c.Currency)
}

// FormatMinutes renders minutes with two decimals.
func (c *Calculator) FormatMinutes(minutes float64) string {
	return c.printer.Sprintf("%.2f", minutes)
}

// Format renders amount with p, prefixed by symbol when it is non-empty.
func Format(p *message.Printer, amount float64, symbol string) string {
	s := p.Sprintf("%.2f", Round2(amount))
	if symbol == "" {
		return s
	}
	return symbol + " " + s
}
