package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateAnalysisType checks if the analysis name is in the allowed list
func ValidateAnalysisType(analysis string) error {
	allowed := map[string]bool{
		"ccr":     true,
		"chr":     true,
		"bucket":  true,
		"keyword": true,
	}

	if !allowed[strings.ToLower(analysis)] {
		return fmt.Errorf("invalid analysis: %s (allowed: ccr, chr, bucket, keyword)", analysis)
	}
	return nil
}

// ValidateArchiveName validates uploaded archive file names
func ValidateArchiveName(name string) error {
	if name == "" {
		return fmt.Errorf("archive name cannot be empty")
	}

	lower := strings.ToLower(name)
	ok := strings.HasSuffix(lower, ".tar") ||
		strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".7z")
	if !ok {
		return fmt.Errorf("unsupported archive type: %s (allowed: .tar, .tar.gz, .tgz, .7z)", name)
	}

	// Block dangerous patterns
	dangerous := []string{"../", "..", "/", "\\", "$(", "`", "&", "|", ";", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return fmt.Errorf("invalid characters in archive name")
		}
	}

	return nil
}

// ValidateCaseNumber validates the optional support case identifier
func ValidateCaseNumber(caseNumber string) error {
	if caseNumber == "" {
		return nil // Optional field
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, caseNumber)
	if !matched {
		return fmt.Errorf("invalid case number format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// ValidateUser validates the portal user name from the URL
func ValidateUser(user string) error {
	if user == "" {
		return fmt.Errorf("user cannot be empty")
	}

	// Allow alphanumeric, dash, underscore, dot, @ (max 64 chars)
	pattern := `^[a-zA-Z0-9_.@-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, user)
	if !matched {
		return fmt.Errorf("invalid user format (alphanumeric, dash, underscore, dot only, max 64 chars)")
	}

	return nil
}

// ValidateSessionID validates session ID format
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}

	// UUID pattern
	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, sessionID)
	if !matched {
		return fmt.Errorf("invalid session ID format")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
