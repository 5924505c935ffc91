package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
)

// ── Candidates ──

func (s *Store) CreateCandidate(ctx context.Context, c *hr.Candidate) error {
	if _, err := s.db.Collection(colCandidates).InsertOne(ctx, toCandidateModel(c)); err != nil {
		return fmt.Errorf("hrflow/mongo: create candidate: %w", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*hr.Candidate, error) {
	var m candidateModel
	err := s.db.Collection(colCandidates).
		FindOne(ctx, bson.M{"_id": candidateID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get candidate: %w", err)
	}
	return fromCandidateModel(&m)
}

func (s *Store) UpdateCandidate(ctx context.Context, c *hr.Candidate) error {
	m := toCandidateModel(c)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colCandidates).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update candidate: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrCandidateNotFound
	}
	return nil
}

func (s *Store) ListCandidates(ctx context.Context, status hr.CandidateStatus) ([]*hr.Candidate, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.db.Collection(colCandidates).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var models []candidateModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list candidates decode: %w", err)
	}

	out := make([]*hr.Candidate, 0, len(models))
	for i := range models {
		c, convErr := fromCandidateModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list candidates convert: %w", convErr)
		}
		out = append(out, c)
	}
	return out, nil
}

// ── Employees ──

func (s *Store) CreateEmployee(ctx context.Context, e *hr.Employee) error {
	if _, err := s.db.Collection(colEmployees).InsertOne(ctx, toEmployeeModel(e)); err != nil {
		return fmt.Errorf("hrflow/mongo: create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*hr.Employee, error) {
	var m employeeModel
	err := s.db.Collection(colEmployees).
		FindOne(ctx, bson.M{"_id": employeeID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get employee: %w", err)
	}
	return fromEmployeeModel(&m)
}

func (s *Store) UpdateEmployee(ctx context.Context, e *hr.Employee) error {
	m := toEmployeeModel(e)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colEmployees).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update employee: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrEmployeeNotFound
	}
	return nil
}

// SearchEmployees matches the term case-insensitively against name,
// email and department. An empty term returns all employees.
func (s *Store) SearchEmployees(ctx context.Context, term string) ([]*hr.Employee, error) {
	filter := bson.M{}
	if term != "" {
		regex := bson.M{"$regex": term, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"email": regex},
			bson.M{"department": regex},
		}
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.db.Collection(colEmployees).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: search employees: %w", err)
	}
	defer cursor.Close(ctx)

	var models []employeeModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: search employees decode: %w", err)
	}

	out := make([]*hr.Employee, 0, len(models))
	for i := range models {
		e, convErr := fromEmployeeModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: search employees convert: %w", convErr)
		}
		out = append(out, e)
	}
	return out, nil
}

// ── Job postings ──

func (s *Store) CreatePosting(ctx context.Context, p *hr.JobPosting) error {
	if _, err := s.db.Collection(colPostings).InsertOne(ctx, toPostingModel(p)); err != nil {
		return fmt.Errorf("hrflow/mongo: create posting: %w", err)
	}
	return nil
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*hr.JobPosting, error) {
	var m postingModel
	err := s.db.Collection(colPostings).
		FindOne(ctx, bson.M{"_id": postingID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrPostingNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get posting: %w", err)
	}
	return fromPostingModel(&m)
}

func (s *Store) ListActivePostings(ctx context.Context) ([]*hr.JobPosting, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(colPostings).
		Find(ctx, bson.M{"status": string(hr.PostingActive)}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list postings: %w", err)
	}
	defer cursor.Close(ctx)

	var models []postingModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list postings decode: %w", err)
	}

	out := make([]*hr.JobPosting, 0, len(models))
	for i := range models {
		p, convErr := fromPostingModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list postings convert: %w", convErr)
		}
		out = append(out, p)
	}
	return out, nil
}

// ── Interviews ──

func (s *Store) CreateInterview(ctx context.Context, iv *hr.Interview) error {
	if _, err := s.db.Collection(colInterviews).InsertOne(ctx, toInterviewModel(iv)); err != nil {
		return fmt.Errorf("hrflow/mongo: create interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, interviewID id.InterviewID) (*hr.Interview, error) {
	var m interviewModel
	err := s.db.Collection(colInterviews).
		FindOne(ctx, bson.M{"_id": interviewID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrInterviewNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get interview: %w", err)
	}
	return fromInterviewModel(&m)
}

func (s *Store) UpdateInterview(ctx context.Context, iv *hr.Interview) error {
	m := toInterviewModel(iv)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colInterviews).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update interview: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrInterviewNotFound
	}
	return nil
}

// ── Performance reviews ──

func (s *Store) CreateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	if _, err := s.db.Collection(colReviews).InsertOne(ctx, toReviewModel(rv)); err != nil {
		return fmt.Errorf("hrflow/mongo: create review: %w", err)
	}
	return nil
}

func (s *Store) GetReview(ctx context.Context, reviewID id.ReviewID) (*hr.PerformanceReview, error) {
	var m reviewModel
	err := s.db.Collection(colReviews).
		FindOne(ctx, bson.M{"_id": reviewID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrReviewNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get review: %w", err)
	}
	return fromReviewModel(&m)
}

func (s *Store) UpdateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	m := toReviewModel(rv)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colReviews).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrReviewNotFound
	}
	return nil
}

func (s *Store) ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*hr.PerformanceReview, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(colReviews).
		Find(ctx, bson.M{"employee_id": employeeID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var models []reviewModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list reviews decode: %w", err)
	}

	out := make([]*hr.PerformanceReview, 0, len(models))
	for i := range models {
		rv, convErr := fromReviewModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list reviews convert: %w", convErr)
		}
		out = append(out, rv)
	}
	return out, nil
}

// ── Onboarding ──

func (s *Store) CreateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	if _, err := s.db.Collection(colOnboardings).InsertOne(ctx, toOnboardingModel(ob)); err != nil {
		return fmt.Errorf("hrflow/mongo: create onboarding: %w", err)
	}
	return nil
}

func (s *Store) GetOnboarding(ctx context.Context, onboardingID id.OnboardingID) (*hr.OnboardingRecord, error) {
	var m onboardingModel
	err := s.db.Collection(colOnboardings).
		FindOne(ctx, bson.M{"_id": onboardingID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrOnboardingNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get onboarding: %w", err)
	}
	return fromOnboardingModel(&m)
}

func (s *Store) UpdateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	m := toOnboardingModel(ob)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colOnboardings).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update onboarding: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrOnboardingNotFound
	}
	return nil
}

// ── Stats ──

// Stats counts records per kind.
func (s *Store) Stats(ctx context.Context) (hr.Stats, error) {
	var st hr.Stats
	counts := []struct {
		col  string
		dest *int
	}{
		{colEmployees, &st.Employees},
		{colCandidates, &st.Candidates},
		{colPostings, &st.Postings},
		{colInterviews, &st.Interviews},
		{colReviews, &st.Reviews},
		{colOnboardings, &st.Onboardings},
	}
	for _, c := range counts {
		n, err := s.db.Collection(c.col).CountDocuments(ctx, bson.M{})
		if err != nil {
			return hr.Stats{}, fmt.Errorf("hrflow/mongo: stats %s: %w", c.col, err)
		}
		*c.dest = int(n)
	}
	return st, nil
}
