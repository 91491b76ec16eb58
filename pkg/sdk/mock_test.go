package polaudit

import (
	"context"

	"github.com/kailas-cloud/polaudit/internal/domain/search/request"
	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
	"github.com/kailas-cloud/polaudit/internal/domain/training"
	feedbackuc "github.com/kailas-cloud/polaudit/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/polaudit/internal/usecase/health"
	"github.com/kailas-cloud/polaudit/internal/usecase/termcheck"
)

// --- queryUseCase mock ---

type mockQueryUC struct {
	queryFn func(ctx context.Context, req *request.Request) ([]result.Result, error)
}

func (m *mockQueryUC) Query(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.queryFn(ctx, req)
}

// --- feedbackUseCase mock ---

type mockFeedbackUC struct {
	submitFn func(ctx context.Context, fb training.Feedback) (feedbackuc.Outcome, error)
}

func (m *mockFeedbackUC) Submit(ctx context.Context, fb training.Feedback) (feedbackuc.Outcome, error) {
	return m.submitFn(ctx, fb)
}

// --- termCheckUseCase mock ---

type mockTermCheckUC struct {
	report termcheck.Report
	err    error
}

func (m *mockTermCheckUC) Run(context.Context) (termcheck.Report, error) {
	return m.report, m.err
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(q queryUseCase, f feedbackUseCase, tc termCheckUseCase, h healthUseCase) *Client {
	return &Client{
		querySvc:    q,
		feedbackSvc: f,
		termSvc:     tc,
		healthSvc:   h,
	}
}
