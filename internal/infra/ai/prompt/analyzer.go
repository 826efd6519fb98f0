package prompt

import (
	"encoding/json"
	"strings"
)

// DigestReportContent builds a JSON digest of a report without calling a
// model. Used when no API key is configured or the provider is down. It
// never prints; it only returns the JSON string.
func DigestReportContent(reportURL string, reportText string) string {
	type Highlight struct {
		Title          string `json:"title"`
		Level          string `json:"level"`
		Summary        string `json:"summary"`
		Recommendation string `json:"recommendation"`
	}

	type Counts struct {
		Critical int `json:"critical"`
		Warning  int `json:"warning"`
		Notice   int `json:"notice"`
		Total    int `json:"total"`
	}

	type Output struct {
		ReportURL  string      `json:"report_url"`
		Counts     Counts      `json:"counts"`
		Highlights []Highlight `json:"highlights"`
		Verdict    string      `json:"verdict"`
	}

	out := Output{ReportURL: reportURL}
	highlights := make([]Highlight, 0, 8)

	addHighlight := func(level, title, summary, rec string) {
		level = strings.ToLower(level)
		highlights = append(highlights, Highlight{
			Title:          title,
			Level:          level,
			Summary:        summary,
			Recommendation: rec,
		})
		switch level {
		case "critical":
			out.Counts.Critical++
		case "warning":
			out.Counts.Warning++
		case "notice":
			out.Counts.Notice++
		}
	}

	trim := func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	}

	// Scan line by line for severity markers the analysis scripts emit.
	var firstCritical, firstWarning string
	var critLines, warnLines, errLines int
	for _, line := range strings.Split(reportText, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "critical"):
			critLines++
			if firstCritical == "" {
				firstCritical = strings.TrimSpace(line)
			}
		case strings.Contains(lower, "error") || strings.Contains(lower, "fail"):
			errLines++
			if firstCritical == "" {
				firstCritical = strings.TrimSpace(line)
			}
		case strings.Contains(lower, "warning") || strings.Contains(lower, "warn"):
			warnLines++
			if firstWarning == "" {
				firstWarning = strings.TrimSpace(line)
			}
		}
	}

	if critLines > 0 {
		addHighlight("critical", "Critical markers in report",
			"Example: "+trim(stripTags(firstCritical), 120),
			"Inspect the flagged sections of the report and open a case if the condition persists.")
	}
	if errLines > 0 {
		addHighlight("warning", "Error or failure markers in report",
			"The report contains lines mentioning errors or failures.",
			"Correlate with device logs around the capture time.")
	}
	if warnLines > 0 {
		addHighlight("notice", "Warning markers in report",
			"Example: "+trim(stripTags(firstWarning), 120),
			"Review warnings; most are informational but recurring ones deserve a look.")
	}

	if len(highlights) == 0 {
		addHighlight("ok", "No obvious problem markers",
			"The report text contains no critical, error, or warning markers.",
			"Skim the full report once; automated markers can miss device-specific issues.")
	}

	if len(highlights) > 10 {
		highlights = highlights[:10]
	}
	out.Highlights = highlights
	out.Counts.Total = out.Counts.Critical + out.Counts.Warning + out.Counts.Notice

	switch {
	case out.Counts.Critical > 0:
		out.Verdict = "The report flags critical conditions; review it before closing the case."
	case out.Counts.Warning > 0:
		out.Verdict = "The report flags errors or failures worth correlating with device logs."
	case out.Counts.Notice > 0:
		out.Verdict = "Only warnings present; the device looks healthy overall."
	default:
		out.Verdict = "No problem markers found; the device looks healthy."
	}

	b, err := json.Marshal(out)
	if err != nil {
		fb := Output{ReportURL: reportURL, Verdict: "Digest error; open the report directly."}
		data, _ := json.Marshal(fb)
		return string(data)
	}
	return string(b)
}

// stripTags removes HTML markup so excerpts from the report read as plain text.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
