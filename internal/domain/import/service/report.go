package service

import (
	"fmt"
)

// DisplayLimit caps the error and warning lists of a report. Totals are not capped.
const DisplayLimit = 10

// RowStatus tells whether a row was stored
type RowStatus int

const (
	RowSaved RowStatus = iota
	RowSkipped
)

// RowOutcome is the result of processing one row.
type RowOutcome struct {
	Line            int
	Status          RowStatus
	Err             error
	Warnings        []string
	CreatedCategory string
	CreatedAccount  string
}

// Message is the report entry for a skipped row
func (o RowOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("row %d: %v", o.Line, o.Err)
}

// ImportReport summarizes one import run
type ImportReport struct {
	Success           bool     `json:"success"`
	SuccessCount      int      `json:"successCount"`
	ErrorCount        int      `json:"errorCount"`
	Errors            []string `json:"errors"`
	TotalErrors       int      `json:"totalErrors"`
	Warnings          []string `json:"warnings"`
	TotalWarnings     int      `json:"totalWarnings"`
	CreatedAccounts   []string `json:"createdAccounts"`
	CreatedCategories []string `json:"createdCategories"`
}

// reportBuilder aggregates row outcomes in source order.
type reportBuilder struct {
	successCount      int
	errors            []string
	warnings          []string
	seenWarnings      map[string]struct{}
	createdAccounts   []string
	createdCategories []string
	seenAccounts      map[string]struct{}
	seenCategories    map[string]struct{}
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{
		seenWarnings:   make(map[string]struct{}),
		seenAccounts:   make(map[string]struct{}),
		seenCategories: make(map[string]struct{}),
	}
}

func (b *reportBuilder) add(o RowOutcome) {
	switch o.Status {
	case RowSaved:
		b.successCount++
	case RowSkipped:
		b.errors = append(b.errors, o.Message())
	}

	for _, w := range o.Warnings {
		if _, seen := b.seenWarnings[w]; seen {
			continue
		}
		b.seenWarnings[w] = struct{}{}
		b.warnings = append(b.warnings, w)
	}

	if name := o.CreatedCategory; name != "" {
		if _, seen := b.seenCategories[name]; !seen {
			b.seenCategories[name] = struct{}{}
			b.createdCategories = append(b.createdCategories, name)
		}
	}
	if name := o.CreatedAccount; name != "" {
		if _, seen := b.seenAccounts[name]; !seen {
			b.seenAccounts[name] = struct{}{}
			b.createdAccounts = append(b.createdAccounts, name)
		}
	}
}

// build returns the report. complete is false when the run stopped early.
func (b *reportBuilder) build(complete bool) *ImportReport {
	return &ImportReport{
		Success:           complete,
		SuccessCount:      b.successCount,
		ErrorCount:        len(b.errors),
		Errors:            capped(b.errors),
		TotalErrors:       len(b.errors),
		Warnings:          capped(b.warnings),
		TotalWarnings:     len(b.warnings),
		CreatedAccounts:   nonNil(b.createdAccounts),
		CreatedCategories: nonNil(b.createdCategories),
	}
}

func capped(messages []string) []string {
	if len(messages) > DisplayLimit {
		messages = messages[:DisplayLimit]
	}
	return nonNil(messages)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
