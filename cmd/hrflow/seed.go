package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/engine"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo personnel records into the store",
	Long: `Load a small demo data set: one active job posting, three
candidates with varying experience, and a hiring manager. Prints the
created IDs so they can be fed straight into "hrflow run".`,
	Args: cobra.NoArgs,
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		store := eng.HR()

		posting := &hr.JobPosting{
			Entity:     hrflow.NewEntity(),
			ID:         id.NewPostingID(),
			Title:      "Senior Software Engineer",
			Department: "Engineering",
			Description: "Design and operate the services behind our " +
				"people platform.",
			Requirements: []string{"Go", "PostgreSQL", "distributed systems"},
			Status:       hr.PostingActive,
		}
		if err := store.CreatePosting(ctx, posting); err != nil {
			return fmt.Errorf("create posting: %w", err)
		}

		manager := &hr.Employee{
			Entity:     hrflow.NewEntity(),
			ID:         id.NewEmployeeID(),
			Name:       "Priya Raman",
			Email:      "priya@example.com",
			Department: "Engineering",
			Position:   "Engineering Manager",
			StartDate:  time.Now().AddDate(-3, 0, 0),
			Active:     true,
		}
		if err := store.CreateEmployee(ctx, manager); err != nil {
			return fmt.Errorf("create employee: %w", err)
		}

		candidates := []*hr.Candidate{
			{
				Name:            "Dana Reyes",
				Email:           "dana@example.com",
				Skills:          []string{"Go", "PostgreSQL", "Kubernetes"},
				ExperienceYears: 9,
				Resume:          "Nine years of distributed systems.",
			},
			{
				Name:            "Marcus Webb",
				Email:           "marcus@example.com",
				Skills:          []string{"Python", "Django"},
				ExperienceYears: 4,
				Resume:          "Backend developer, four years.",
			},
			{
				Name:            "Ines Fournier",
				Email:           "ines@example.com",
				Skills:          []string{"Go", "Terraform"},
				ExperienceYears: 1,
				Resume:          "Recent graduate, one internship.",
			},
		}
		for _, c := range candidates {
			c.Entity = hrflow.NewEntity()
			c.ID = id.NewCandidateID()
			c.PostingID = posting.ID
			c.Status = hr.CandidateApplied
			if err := store.CreateCandidate(ctx, c); err != nil {
				return fmt.Errorf("create candidate: %w", err)
			}
		}

		fmt.Printf("Posting:   %s  (%s)\n", posting.ID, posting.Title)
		fmt.Printf("Manager:   %s  (%s)\n", manager.ID, manager.Name)
		for _, c := range candidates {
			fmt.Printf("Candidate: %s  (%s, %d yrs)\n", c.ID, c.Name, c.ExperienceYears)
		}
		fmt.Println()
		fmt.Println("Try: hrflow run candidate_screening --set candidate_id=" + candidates[0].ID.String())
		return nil
	}),
}
