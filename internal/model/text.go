package model

import (
	"fmt"
	"strings"
)

// ProfileText renders a profile into the canonical text its embedding is
// computed from. The same field order is used everywhere so embeddings
// of unchanged profiles are byte-for-byte reproducible.
func ProfileText(p *UserProfile) string {
	var b strings.Builder
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Skills: %s. ", strings.Join(p.Tags, ", "))
	}
	if p.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s. ", p.Experience)
	}
	if p.WorkType != "" {
		fmt.Fprintf(&b, "Work type: %s. ", p.WorkType)
	}
	if p.City != "" {
		fmt.Fprintf(&b, "City: %s. ", p.City)
	}
	if p.SalaryMin != nil || p.SalaryMax != nil {
		b.WriteString("Salary: ")
		if p.SalaryMin != nil {
			fmt.Fprintf(&b, "%d", *p.SalaryMin)
		}
		b.WriteString("-")
		if p.SalaryMax != nil {
			fmt.Fprintf(&b, "%d", *p.SalaryMax)
		}
		if p.Currency != "" {
			fmt.Fprintf(&b, " %s", p.Currency)
		}
		b.WriteString(". ")
	}
	return strings.TrimSpace(b.String())
}

// PostingText renders a posting into the canonical text used when a
// posting's embedding has to be recomputed after a moderation edit.
// Freshly ingested postings are embedded from their raw text instead.
func PostingText(p *JobPosting) string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "%s. ", p.Title)
	}
	if p.Company != "" {
		fmt.Fprintf(&b, "Company: %s. ", p.Company)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Skills: %s. ", strings.Join(p.Tags, ", "))
	}
	if p.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s. ", p.Experience)
	}
	if p.WorkType != "" {
		fmt.Fprintf(&b, "Work type: %s. ", p.WorkType)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s. ", p.Location)
	}
	if p.Description != "" {
		b.WriteString(p.Description)
	}
	return strings.TrimSpace(b.String())
}
