package assessor

import (
	"context"
	"sync"

	"github.com/credence-ai/credence/internal/domain"
)

// MockClient is a configurable assessor client for testing.
// Set the response fields to control what each method returns, or the
// Func fields for per-call behavior. Safe for concurrent use: the
// aggregation controller dispatches assessments in parallel.
type MockClient struct {
	mu sync.Mutex

	QualityResponse *domain.QualityAssessment
	QualityError    error
	QualityFunc     func(ctx context.Context, ev *domain.Evidence) (*domain.QualityAssessment, error)

	LikelihoodResponse *domain.LikelihoodAssessment
	LikelihoodError    error
	LikelihoodFunc     func(ctx context.Context, ev *domain.Evidence, hypothesis string) (*domain.LikelihoodAssessment, error)

	// Call tracking for assertions
	QualityCalls    []string
	LikelihoodCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		QualityResponse:    domain.NeutralQualityAssessment(),
		LikelihoodResponse: domain.NeutralLikelihoodAssessment(),
	}
}

func (c *MockClient) AssessQuality(ctx context.Context, ev *domain.Evidence) (*domain.QualityAssessment, error) {
	c.mu.Lock()
	c.QualityCalls = append(c.QualityCalls, ev.Source)
	fn, resp, err := c.QualityFunc, c.QualityResponse, c.QualityError
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, ev)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *MockClient) EstimateLikelihood(ctx context.Context, ev *domain.Evidence, hypothesis string) (*domain.LikelihoodAssessment, error) {
	c.mu.Lock()
	c.LikelihoodCalls = append(c.LikelihoodCalls, ev.Source)
	fn, resp, err := c.LikelihoodFunc, c.LikelihoodResponse, c.LikelihoodError
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, ev, hypothesis)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.QualityResponse = domain.NeutralQualityAssessment()
	c.QualityError = nil
	c.QualityFunc = nil
	c.LikelihoodResponse = domain.NeutralLikelihoodAssessment()
	c.LikelihoodError = nil
	c.LikelihoodFunc = nil
	c.QualityCalls = nil
	c.LikelihoodCalls = nil
}
