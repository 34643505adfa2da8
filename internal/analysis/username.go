package analysis

import (
	"regexp"
	"strings"

	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
)

var (
	profileURLPattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?github\.com/([A-Za-z0-9-]{1,39})(?:$|[/?#])`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9-]{1,39}$`)
)

// ParseGitHubUsername accepts a bare login or a github.com profile URL
func ParseGitHubUsername(input string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(input), "/")
	if trimmed != "" {
		if m := profileURLPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], nil
		}
		if usernamePattern.MatchString(trimmed) {
			return trimmed, nil
		}
	}
	return "", apperrors.NewValidationError("Please provide a valid GitHub username or profile URL.", "username", input)
}
