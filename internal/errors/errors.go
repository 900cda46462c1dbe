package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/cmucal/internal/logger"
)

var (
	// ErrNoScheduleSelected is returned by schedule mutations issued while the
	// cleared/default schedule is active.
	ErrNoScheduleSelected = stderrors.New("no schedule selected")
	// ErrSuperseded marks a fetch whose result was discarded because a newer
	// request was issued before it completed.
	ErrSuperseded = stderrors.New("request superseded by a newer schedule selection")
	// ErrNotAuthenticated is returned when no user id is configured.
	ErrNotAuthenticated = stderrors.New("not logged in")
	// ErrGoogleNotConnected is returned by Google operations before the account is authorized.
	ErrGoogleNotConnected = stderrors.New("google calendar is not connected")
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Friendly maps known failures to the message shown to the user. Unknown
// errors fall back to Format.
func Friendly(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrNoScheduleSelected):
		return "Please select a schedule first (cmucal schedule select <id>)."
	case stderrors.Is(err, ErrNotAuthenticated):
		return "You are not logged in. Run 'cmucal login <user-id>' first."
	case stderrors.Is(err, ErrGoogleNotConnected):
		return "Google Calendar is not connected. Connect it from the CMUCal web app first."
	case stderrors.Is(err, ErrSuperseded):
		return "Schedule changed while loading; showing the latest selection."
	default:
		return Format(err)
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Friendly(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
