package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDate accepts YYYY-MM-DD or natural language ("next monday",
// "in 2 weeks") relative to now. The result is truncated to midnight UTC.
func parseDate(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return t, nil
	}
	r, err := dateParser.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or a phrase like \"next monday\"", text)
	}
	t := r.Time.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
