package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

// FunnelStats describes how a survey's token population moved through the
// lifecycle.
type FunnelStats struct {
	Unused            int64   `json:"unused"`
	Passed            int64   `json:"passed"`
	Failed            int64   `json:"failed"`
	Submitted         int64   `json:"submitted"`
	Total             int64   `json:"total"`
	QualificationRate float64 `json:"qualification_rate"`
	CompletionRate    float64 `json:"completion_rate"`
	DropOffRate       float64 `json:"drop_off_rate"`
}

type DayTrend struct {
	Date        string  `json:"date"`
	Submissions int64   `json:"submissions"`
	Passed      int64   `json:"passed"`
	Failed      int64   `json:"failed"`
	PassRate    float64 `json:"pass_rate"`
}

type MonthCount struct {
	Name    string `json:"name"`
	Surveys int64  `json:"surveys"`
}

type DashboardStats struct {
	TotalSurveys    int64        `json:"total_surveys"`
	ActiveSurveys   int64        `json:"active_surveys"`
	TotalResponses  int64        `json:"total_responses"`
	MatchRate       float64      `json:"match_rate"`
	EngagementChart []MonthCount `json:"engagement_chart"`
}

type AnalyticsService interface {
	Funnel(ctx context.Context, surveyID uuid.UUID) (*FunnelStats, error)
	Trends(ctx context.Context, surveyID uuid.UUID, days int) ([]DayTrend, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	OrphanSummary(ctx context.Context) ([]repository.OrphanReasonCount, error)
	OrphanDetails(ctx context.Context, reason string, limit int) ([]model.OrphanSubmission, error)
}

type analyticsService struct {
	tokenRepo      repository.TokenRepository
	surveyRepo     repository.SurveyRepository
	submissionRepo repository.SubmissionRepository
	orphanRepo     repository.OrphanRepository
}

func NewAnalyticsService(
	tokenRepo repository.TokenRepository,
	surveyRepo repository.SurveyRepository,
	submissionRepo repository.SubmissionRepository,
	orphanRepo repository.OrphanRepository,
) AnalyticsService {
	return &analyticsService{
		tokenRepo:      tokenRepo,
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		orphanRepo:     orphanRepo,
	}
}

func (s *analyticsService) Funnel(ctx context.Context, surveyID uuid.UUID) (*FunnelStats, error) {
	counts, err := s.tokenRepo.StatusCounts(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("count token statuses: %w", err)
	}

	stats := &FunnelStats{
		Unused:    counts[model.TokenStatusUnused],
		Passed:    counts[model.TokenStatusPassed],
		Failed:    counts[model.TokenStatusFailed],
		Submitted: counts[model.TokenStatusSubmitted],
	}
	stats.Total = stats.Unused + stats.Passed + stats.Failed + stats.Submitted

	// Submitted tokens passed screening earlier, so they count as qualified.
	qualified := stats.Passed + stats.Submitted
	engaged := qualified + stats.Failed
	if engaged > 0 {
		stats.QualificationRate = float64(qualified) / float64(engaged) * 100
	}
	if qualified > 0 {
		stats.CompletionRate = float64(stats.Submitted) / float64(qualified) * 100
		stats.DropOffRate = float64(stats.Passed) / float64(qualified) * 100
	}
	return stats, nil
}

func (s *analyticsService) Trends(ctx context.Context, surveyID uuid.UUID, days int) ([]DayTrend, error) {
	if days < 1 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	tokens, err := s.tokenRepo.ListCreatedSince(ctx, surveyID, since)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}

	byDay := make(map[string]*DayTrend)
	for _, token := range tokens {
		day := token.CreatedAt.UTC().Format("2006-01-02")
		trend, ok := byDay[day]
		if !ok {
			trend = &DayTrend{Date: day}
			byDay[day] = trend
		}
		switch token.Status {
		case model.TokenStatusSubmitted:
			trend.Submissions++
		case model.TokenStatusPassed:
			trend.Passed++
		case model.TokenStatusFailed:
			trend.Failed++
		}
	}

	trends := make([]DayTrend, 0, len(byDay))
	for _, trend := range byDay {
		if attempts := trend.Passed + trend.Failed; attempts > 0 {
			trend.PassRate = float64(trend.Passed) / float64(attempts) * 100
		}
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

func (s *analyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	totalSurveys, err := s.surveyRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count surveys: %w", err)
	}
	activeSurveys, err := s.surveyRepo.CountByStatus(ctx, model.SurveyStatusActive)
	if err != nil {
		return nil, fmt.Errorf("count active surveys: %w", err)
	}
	totalResponses, err := s.submissionRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	tokenCounts, err := s.tokenRepo.StatusCountsAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count token statuses: %w", err)
	}
	var totalTokens, qualified int64
	for status, count := range tokenCounts {
		totalTokens += count
		if status == model.TokenStatusPassed || status == model.TokenStatusSubmitted {
			qualified += count
		}
	}
	var matchRate float64
	if totalTokens > 0 {
		matchRate = float64(qualified) / float64(totalTokens) * 100
	}

	chart, err := s.engagementChart(ctx, totalResponses)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalSurveys:    totalSurveys,
		ActiveSurveys:   activeSurveys,
		TotalResponses:  totalResponses,
		MatchRate:       matchRate,
		EngagementChart: chart,
	}, nil
}

// engagementChart buckets recent submissions per month, capped at six
// buckets, oldest first.
func (s *analyticsService) engagementChart(ctx context.Context, totalResponses int64) ([]MonthCount, error) {
	now := time.Now().UTC()
	stamps, err := s.submissionRepo.ListSubmittedSince(ctx, now.AddDate(0, -6, 0))
	if err != nil {
		return nil, fmt.Errorf("load submission timestamps: %w", err)
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	counts := make(map[monthKey]int64)
	var keys []monthKey
	for _, stamp := range stamps {
		key := monthKey{stamp.UTC().Year(), stamp.UTC().Month()}
		if _, seen := counts[key]; !seen {
			keys = append(keys, key)
		}
		counts[key]++
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	if len(keys) > 6 {
		keys = keys[len(keys)-6:]
	}

	chart := make([]MonthCount, 0, len(keys))
	for _, key := range keys {
		chart = append(chart, MonthCount{Name: key.month.String()[:3], Surveys: counts[key]})
	}
	if len(chart) == 0 {
		chart = []MonthCount{{Name: now.Month().String()[:3], Surveys: totalResponses}}
	}
	return chart, nil
}

func (s *analyticsService) OrphanSummary(ctx context.Context) ([]repository.OrphanReasonCount, error) {
	return s.orphanRepo.Summary(ctx)
}

func (s *analyticsService) OrphanDetails(ctx context.Context, reason string, limit int) ([]model.OrphanSubmission, error) {
	return s.orphanRepo.ListByReason(ctx, reason, limit)
}
