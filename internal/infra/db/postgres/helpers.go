package postgres

import (
	"encoding/json"
	"strings"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
)

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinAnalyses(ts []domain.AnalysisType) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}

func splitAnalyses(s string) []domain.AnalysisType {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []domain.AnalysisType
	for _, p := range strings.Split(s, ",") {
		if t, ok := domain.ParseAnalysisType(strings.TrimSpace(p)); ok {
			out = append(out, t)
		}
	}
	return out
}

func marshalOutcomes(m map[domain.AnalysisType]domain.Outcome) (string, error) {
	if m == nil {
		m = map[domain.AnalysisType]domain.Outcome{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalOutcomes(s string) (map[domain.AnalysisType]domain.Outcome, error) {
	out := map[domain.AnalysisType]domain.Outcome{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
