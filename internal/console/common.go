package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"clinicbook/internal/availability"
	bookingerrors "clinicbook/internal/booking/errors"
	"clinicbook/internal/slots"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/validation"
)

func usageError(cmd *Command) error {
	return apperrors.Validation("usage: "+cmd.Usage, nil)
}

func parsePositive(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, apperrors.Validation(fmt.Sprintf("%s must be a positive number", name), nil)
	}
	return n, nil
}

// splitLine tokenizes a command line. Double quotes group words.
func splitLine(line string) []string {
	var (
		out     []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				out = append(out, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		out = append(out, current.String())
	}
	return out
}

// Notification renders a failure the way the shell shows it. The kind of
// failure is always named, with field messages when validation produced them.
func Notification(err error) string {
	var fields validation.ValidationErrors
	switch {
	case errors.Is(err, slots.ErrStaleResult):
		return "Slot list changed while loading; query slots again."
	case errors.Is(err, bookingerrors.ErrSubmissionInFlight):
		return "A reservation is already being submitted."
	case errors.Is(err, availability.ErrDeclarationInFlight):
		return "An availability declaration is already being sent."
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrUnavailable):
		return err.Error() + " (type help)"
	case apperrors.IsNoSession(err):
		return "Please log in again: " + apperrors.AsAppError(err).Message
	case apperrors.IsAuth(err):
		return "Login or registration failed: " + apperrors.AsAppError(err).Message
	case apperrors.IsConflict(err):
		return "Slot no longer available: " + apperrors.AsAppError(err).Message
	case apperrors.IsFetch(err):
		return "Request failed: " + apperrors.AsAppError(err).Message
	case apperrors.IsValidation(err):
		appErr := apperrors.AsAppError(err)
		msg := "Invalid input: " + appErr.Message
		details := appErr.Details
		if len(details) == 0 && errors.As(err, &fields) {
			details = fields.Fields()
		}
		return msg + formatFields(details)
	case apperrors.IsAppError(err):
		return "Error: " + apperrors.AsAppError(err).Message
	default:
		return "Error: " + err.Error()
	}
}

func formatFields(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, details[k])
	}
	return b.String()
}
