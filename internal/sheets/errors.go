package sheets

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/api/googleapi"
)

const maxBodyLen = 500

// Error is returned for every failed call to the Sheets API or the token
// endpoint. StatusCode is zero when the request never got a response.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return strings.TrimSpace(fmt.Sprintf("sheets: %s failed (%d) %s", e.Op, e.StatusCode, e.Body))
	}
	return fmt.Sprintf("sheets: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		body := ge.Body
		if body == "" {
			body = ge.Message
		}
		return &Error{Op: op, StatusCode: ge.Code, Body: truncate(body), Err: err}
	}
	return &Error{Op: op, Err: err}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxBodyLen {
		return s
	}
	cut := maxBodyLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
