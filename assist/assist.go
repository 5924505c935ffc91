// Package assist evaluates candidates against job postings and produces
// a screening recommendation that drives workflow routing.
//
// The shipped implementation is a deterministic rule engine. Screener is
// an interface so alternative evaluators can be plugged in without
// touching the flows that consume them.
package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/hrflow/hr"
)

// Recommendation is the screening verdict that routes a candidate.
type Recommendation string

const (
	RecommendProceed     Recommendation = "proceed"
	RecommendReject      Recommendation = "reject"
	RecommendNeedsReview Recommendation = "needs_review"
)

// Result is the outcome of screening one candidate.
type Result struct {
	Score          int            `json:"score"`
	Strengths      []string       `json:"strengths,omitempty"`
	Concerns       []string       `json:"concerns,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
}

// Screener evaluates a candidate against a posting. A nil posting means
// the candidate applied without a specific position; implementations
// score on the candidate's profile alone.
type Screener interface {
	Screen(ctx context.Context, c *hr.Candidate, p *hr.JobPosting) (*Result, error)
}

// Thresholds partition screening scores into recommendations. Scores at
// or above Proceed recommend proceeding; scores below Reject recommend
// rejection; everything in between needs a human look.
type Thresholds struct {
	Proceed int
	Reject  int
}

// DefaultThresholds returns the standard score cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Proceed: 70, Reject: 40}
}

// RuleScreener scores candidates on skill overlap with the posting's
// requirements and years of experience.
type RuleScreener struct {
	thresholds Thresholds
}

var _ Screener = (*RuleScreener)(nil)

// NewRuleScreener creates a rule-based screener with default thresholds.
func NewRuleScreener() *RuleScreener {
	return &RuleScreener{thresholds: DefaultThresholds()}
}

// NewRuleScreenerWithThresholds creates a rule-based screener with
// custom score cutoffs.
func NewRuleScreenerWithThresholds(t Thresholds) *RuleScreener {
	return &RuleScreener{thresholds: t}
}

// Screen implements Screener. Scoring is deterministic: up to 60 points
// for requirement coverage, up to 30 for experience, and 10 for a
// submitted resume.
func (s *RuleScreener) Screen(_ context.Context, c *hr.Candidate, p *hr.JobPosting) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("assist: screen nil candidate")
	}

	res := &Result{}

	matched, missing := matchRequirements(c.Skills, requirementsOf(p))
	switch {
	case len(matched)+len(missing) == 0:
		// No requirements to measure against: neutral coverage.
		res.Score += 30
	default:
		res.Score += 60 * len(matched) / (len(matched) + len(missing))
	}
	for _, m := range matched {
		res.Strengths = append(res.Strengths, "meets requirement: "+m)
	}
	for _, m := range missing {
		res.Concerns = append(res.Concerns, "missing requirement: "+m)
	}

	switch {
	case c.ExperienceYears >= 8:
		res.Score += 30
		res.Strengths = append(res.Strengths, fmt.Sprintf("%d years of experience", c.ExperienceYears))
	case c.ExperienceYears >= 3:
		res.Score += 20
	case c.ExperienceYears >= 1:
		res.Score += 10
	default:
		res.Concerns = append(res.Concerns, "no prior experience")
	}

	if strings.TrimSpace(c.Resume) != "" {
		res.Score += 10
	} else {
		res.Concerns = append(res.Concerns, "no resume submitted")
	}

	switch {
	case res.Score >= s.thresholds.Proceed:
		res.Recommendation = RecommendProceed
	case res.Score < s.thresholds.Reject:
		res.Recommendation = RecommendReject
	default:
		res.Recommendation = RecommendNeedsReview
	}
	res.Reasoning = fmt.Sprintf("scored %d/100: %d of %d requirements met, %d years of experience",
		res.Score, len(matched), len(matched)+len(missing), c.ExperienceYears)

	return res, nil
}

func requirementsOf(p *hr.JobPosting) []string {
	if p == nil {
		return nil
	}
	return p.Requirements
}

// matchRequirements partitions requirements into those covered by the
// candidate's skills and those not. Matching is case-insensitive and
// tolerates the skill appearing as a substring of the requirement.
func matchRequirements(skills, requirements []string) (matched, missing []string) {
	lowered := make([]string, len(skills))
	for i, s := range skills {
		lowered[i] = strings.ToLower(strings.TrimSpace(s))
	}

	for _, req := range requirements {
		reqLower := strings.ToLower(req)
		found := false
		for _, skill := range lowered {
			if skill == "" {
				continue
			}
			if skill == reqLower || strings.Contains(reqLower, skill) {
				found = true
				break
			}
		}
		if found {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}
	return matched, missing
}
