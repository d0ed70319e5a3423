package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tharunaditya/certserver/internal/config"
)

var (
	// ErrInvalidRequest wraps every rejection caused by the request's own fields
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDailyLimit is returned when a name has reached its issuance limit for the day
	ErrDailyLimit = errors.New("daily certificate limit exceeded")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IssueCounter reports how many certificates a name received since a point in time
type IssueCounter interface {
	CountIssuedSince(name string, since time.Time) (int, error)
}

// IssueRequest is a normalized, policy-checked certificate request
type IssueRequest struct {
	Name           string
	Series         string
	Date           string
	PartsCompleted int
	BadgeURL       string
}

// Validator validates certificate issuance requests against policy
type Validator struct {
	config  *config.Config
	counter IssueCounter
	now     func() time.Time
}

// NewValidator creates a new policy validator
func NewValidator(cfg *config.Config, counter IssueCounter) *Validator {
	return &Validator{
		config:  cfg,
		counter: counter,
		now:     time.Now,
	}
}

// ValidateIssueRequest checks a request and fills in catalog defaults.
// A zero parts value means "use the series default".
func (v *Validator) ValidateIssueRequest(name, series, date string, parts int) (*IssueRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !utf8.ValidString(name) {
		return nil, invalid("name is not valid UTF-8")
	}
	if utf8.RuneCountInString(name) > v.config.Policy.MaxNameLength {
		return nil, invalid("name exceeds %d characters", v.config.Policy.MaxNameLength)
	}

	series = strings.TrimSpace(series)
	if series == "" {
		return nil, invalid("series is required")
	}
	if !utf8.ValidString(series) {
		return nil, invalid("series is not valid UTF-8")
	}
	if utf8.RuneCountInString(series) > v.config.Policy.MaxSeriesLength {
		return nil, invalid("series exceeds %d characters", v.config.Policy.MaxSeriesLength)
	}

	req := &IssueRequest{
		Name:           name,
		Series:         series,
		PartsCompleted: v.config.Policy.DefaultParts,
	}

	// An empty catalog accepts any series
	if len(v.config.Policy.Series) > 0 {
		entry, ok := v.config.FindSeries(series)
		if !ok {
			return nil, invalid("unknown series %q", series)
		}
		if entry.Parts > 0 {
			req.PartsCompleted = entry.Parts
		}
		req.BadgeURL = entry.BadgeURL
	}

	if parts < 0 {
		return nil, invalid("parts completed must not be negative")
	}
	if parts > 0 {
		req.PartsCompleted = parts
	}

	normalized, err := normalizeDate(date, v.now())
	if err != nil {
		return nil, err
	}
	req.Date = normalized

	if err := v.checkDailyLimit(name); err != nil {
		return nil, err
	}

	return req, nil
}

func (v *Validator) checkDailyLimit(name string) error {
	now := v.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := v.counter.CountIssuedSince(name, startOfDay)
	if err != nil {
		return fmt.Errorf("failed to check daily limit: %w", err)
	}

	if limit := v.config.Policy.MaxCertsPerDay; count >= limit {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimit, count, limit)
	}

	return nil
}

// normalizeDate accepts YYYY-MM-DD or RFC3339 and defaults to today
func normalizeDate(date string, now time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now.UTC().Format(time.DateOnly), nil
	}

	if _, err := time.Parse(time.DateOnly, date); err == nil {
		return date, nil
	}
	if _, err := time.Parse(time.RFC3339, date); err == nil {
		return date, nil
	}

	return "", invalid("date must be YYYY-MM-DD or RFC3339, got %q", date)
}
