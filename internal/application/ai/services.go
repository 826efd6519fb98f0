package ai

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/techsupport-portal/internal/application"
	"github.com/bryanwahyu/techsupport-portal/internal/domain/ai"
	"github.com/bryanwahyu/techsupport-portal/internal/domain/summaries"
	"github.com/bryanwahyu/techsupport-portal/internal/infra/ai/prompt"
)

type Service struct {
	client ai.Client // nil when no API key configured
	repo   summaries.Repository
	clock  application.Clock
}

func NewService(client ai.Client, repo summaries.Repository, clock application.Clock) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{client: client, repo: repo, clock: clock}
}

// SummarizeAndStore digests one finished report and persists the result.
// Without a configured client it falls back to the offline digest, so the
// endpoint keeps working on air-gapped installs.
func (s *Service) SummarizeAndStore(ctx context.Context, owner, sessionID, analysis, reportURL, reportText string) (*summaries.Summary, error) {
	var result string
	if s.client != nil {
		var err error
		result, err = s.client.Summarize(ctx, reportURL, reportText)
		if err != nil {
			return nil, err
		}
	} else {
		result = prompt.DigestReportContent(reportURL, reportText)
	}

	sum := &summaries.Summary{
		ID:        summaries.SummaryID(uuid.NewString()),
		Owner:     owner,
		SessionID: sessionID,
		Analysis:  analysis,
		ReportURL: reportURL,
		Result:    result,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Save(ctx, sum); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}
	return sum, nil
}

// ListSummaries returns stored digests, newest first.
func (s *Service) ListSummaries(ctx context.Context, owner string, page, pageSize int) ([]*summaries.Summary, error) {
	return s.repo.Paginate(ctx, owner, page, pageSize)
}

// LatestForSession returns the newest digest recorded for one session.
func (s *Service) LatestForSession(ctx context.Context, owner, sessionID string) (*summaries.Summary, error) {
	return s.repo.LatestBySession(ctx, owner, sessionID)
}
