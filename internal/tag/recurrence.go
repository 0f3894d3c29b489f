package tag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/teambition/rrule-go"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

var frequencies = map[string]rrule.Frequency{
	"HOURLY":  rrule.HOURLY,
	"DAILY":   rrule.DAILY,
	"WEEKLY":  rrule.WEEKLY,
	"MONTHLY": rrule.MONTHLY,
	"YEARLY":  rrule.YEARLY,
}

var weekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// Rule is a parsed @REPEAT argument list: a frequency keyword followed by
// name=value constraints. Values are literals only: integers, weekday
// codes, dates or quoted strings.
type Rule struct {
	opt rrule.ROption
	// Ignored lists well-formed parameters that do not affect occurrences.
	Ignored []string
}

// ParseRule parses args such as ["HOURLY", "interval=2"].
func ParseRule(args []string) (Rule, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Rule{}, fmt.Errorf("%w: missing frequency", ErrInvalidRecurrence)
	}
	freq, ok := frequencies[strings.ToUpper(strings.TrimSpace(args[0]))]
	if !ok {
		return Rule{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, args[0])
	}
	r := Rule{opt: rrule.ROption{Freq: freq, Interval: 1}}
	for _, raw := range args[1:] {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !ok || !isIdentifier(key) || !isLiteral(value) {
			return Rule{}, fmt.Errorf("%w: bad parameter %q", ErrInvalidRecurrence, raw)
		}
		if err := r.set(key, unquote(value)); err != nil {
			return Rule{}, err
		}
	}
	return r, nil
}

func (r *Rule) set(key, value string) error {
	o := &r.opt
	switch key {
	case "interval":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		o.Interval = n
	case "count":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		o.Count = n
	case "until":
		ts, err := parseUntil(value)
		if err != nil {
			return err
		}
		o.Until = ts
	case "wkst":
		wd, ok := weekdays[strings.ToUpper(value)]
		if !ok {
			return fmt.Errorf("%w: wkst=%q", ErrInvalidRecurrence, value)
		}
		o.Wkst = wd
	case "byweekday":
		wd, ok := weekdays[strings.ToUpper(value)]
		if !ok {
			return fmt.Errorf("%w: byweekday=%q", ErrInvalidRecurrence, value)
		}
		o.Byweekday = append(o.Byweekday, wd)
	case "bysetpos", "bymonth", "bymonthday", "byyearday", "byweekno", "byhour", "byminute", "bysecond", "byeaster":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidRecurrence, key, value)
		}
		list := r.intList(key)
		*list = append(*list, n)
	default:
		r.Ignored = append(r.Ignored, key)
	}
	return nil
}

func (r *Rule) intList(key string) *[]int {
	o := &r.opt
	switch key {
	case "bysetpos":
		return &o.Bysetpos
	case "bymonth":
		return &o.Bymonth
	case "bymonthday":
		return &o.Bymonthday
	case "byyearday":
		return &o.Byyearday
	case "byweekno":
		return &o.Byweekno
	case "byhour":
		return &o.Byhour
	case "byminute":
		return &o.Byminute
	case "bysecond":
		return &o.Bysecond
	default:
		return &o.Byeaster
	}
}

// Interval is the step between occurrences, in units of the frequency.
func (r Rule) Interval() int { return r.opt.Interval }

// NextAfter returns the first occurrence strictly after start, with start
// itself as the rule's anchor.
func (r Rule) NextAfter(start time.Time) (time.Time, error) {
	opt := r.opt
	opt.Dtstart = start
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	next := rule.After(start, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: no occurrence after %s", ErrInvalidRecurrence, start.Format(TimeLayout))
	}
	return next, nil
}

// NextAfter parses args and returns the first occurrence strictly after start.
func NextAfter(args []string, start time.Time) (time.Time, error) {
	r, err := ParseRule(args)
	if err != nil {
		return time.Time{}, err
	}
	if len(r.Ignored) > 0 {
		log.Warn("ignoring recurrence parameters", "params", strings.Join(r.Ignored, ","))
	}
	return r.NextAfter(start)
}

// IgnoreFromRepeat turns a @REPEAT tag into the @IGNOREUNTIL tag for its
// next occurrence after now.
func (t Tag) IgnoreFromRepeat(now time.Time) (Tag, error) {
	if !t.IsRepeat() {
		return Tag{}, fmt.Errorf("%w: %s is not a %s tag", ErrInvalidRecurrence, t, NameRepeat)
	}
	next, err := NextAfter(t.args, now)
	if err != nil {
		return Tag{}, fmt.Errorf("%s: %w", t, err)
	}
	return IgnoreUntil(next), nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidRecurrence, key, value)
	}
	return n, nil
}

func parseUntil(value string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: until=%q", ErrInvalidRecurrence, value)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// isLiteral accepts integers, identifiers, dates and quoted strings.
func isLiteral(s string) bool {
	if s == "" {
		return false
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return !strings.ContainsRune(s[1:len(s)-1], rune(s[0]))
	}
	if _, err := strconv.Atoi(s); err == nil {
		return true
	}
	if isIdentifier(s) {
		return true
	}
	_, err := parseUntil(s)
	return err == nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
