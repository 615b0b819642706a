package validators

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/eventra/checkpoint/models"
)

// Accepted layouts per question type. Parsing is strict: no timezone
// suffixes, no alternate separators.
const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02T15:04"
)

// ValidateAnswer checks one raw operator answer against the question's type
// and returns the cleaned canonical form. An empty answer to an optional
// question is valid and cleans to "". Booleans are special: a required
// boolean must be affirmative, an optional one accepts anything and cleans
// to "True" or "False".
func ValidateAnswer(q models.Question, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if q.Type == models.QuestionTypeBoolean {
		affirmative := strings.EqualFold(trimmed, "true")
		if q.Required && !affirmative {
			return "", invalid(q.ID, "this question must be answered with yes")
		}
		if affirmative {
			return "True", nil
		}
		return "False", nil
	}

	if trimmed == "" {
		if q.Required {
			return "", invalid(q.ID, "an answer is required")
		}
		return "", nil
	}

	switch q.Type {
	case models.QuestionTypeString, models.QuestionTypeText:
		return trimmed, nil
	case models.QuestionTypeNumber:
		return cleanNumber(q, trimmed)
	case models.QuestionTypeChoice:
		opt, err := matchOption(q, trimmed)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(opt.ID, 10), nil
	case models.QuestionTypeMultipleChoice:
		return cleanMultipleChoice(q, trimmed)
	case models.QuestionTypeDate:
		return cleanMoment(q, trimmed, dateLayout, "not a valid date")
	case models.QuestionTypeTime:
		return cleanMoment(q, trimmed, timeLayout, "not a valid time")
	case models.QuestionTypeDateTime:
		return cleanMoment(q, trimmed, dateTimeLayout, "not a valid date and time")
	case models.QuestionTypeFile:
		return "", invalid(q.ID, "file upload is not possible here")
	default:
		return "", invalid(q.ID, "unknown question type "+string(q.Type))
	}
}

// decimalNumber is what counts as a numeric answer: an optionally signed
// decimal with an optional exponent. ParseFloat alone would also take
// "Inf", "NaN" and hexadecimal floats.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// cleanNumber accepts plain and scientific decimals and canonicalizes
// them to a plain decimal without a trailing fraction, so "42.0" and "42"
// compare equal downstream.
func cleanNumber(q models.Question, value string) (string, error) {
	if !decimalNumber.MatchString(value) {
		return "", invalid(q.ID, "not a valid number")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", invalid(q.ID, "not a valid number")
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// matchOption resolves value against the question's options by server id
// or by identifier.
func matchOption(q models.Question, value string) (models.QuestionOption, error) {
	for _, opt := range q.Options {
		if value == strconv.FormatInt(opt.ID, 10) || value == opt.Identifier {
			return opt, nil
		}
	}
	return models.QuestionOption{}, invalid(q.ID, "not a valid option")
}

func cleanMultipleChoice(q models.Question, value string) (string, error) {
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		opt, err := matchOption(q, part)
		if err != nil {
			return "", err
		}
		ids = append(ids, strconv.FormatInt(opt.ID, 10))
	}
	if len(ids) == 0 {
		if q.Required {
			return "", invalid(q.ID, "an answer is required")
		}
		return "", nil
	}
	return strings.Join(ids, ","), nil
}

func cleanMoment(q models.Question, value, layout, reason string) (string, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return "", invalid(q.ID, reason)
	}
	return t.Format(layout), nil
}
