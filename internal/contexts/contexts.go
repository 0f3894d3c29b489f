// Package contexts maintains the set of context tags that describe where
// and when the user is. Some tags are derived automatically from the clock
// and the wifi network.
package contexts

import (
	"context"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amirbrooks/todonow/internal/tag"
)

// Handler refreshes automatic context tags.
type Handler struct {
	HomeWifi []string
	WorkWifi []string

	// Wifi reports the current network name, or "" when unknown.
	Wifi func() string
	Now  func() time.Time
}

// state is the environment a rule is evaluated against.
type state struct {
	now  time.Time
	wifi func() string
	h    *Handler
}

func (s *state) hourIn(lo, hi int) bool {
	h := s.now.Hour()
	return h >= lo && h <= hi
}

func (s *state) weekday() bool {
	d := s.now.Weekday()
	return d != time.Saturday && d != time.Sunday
}

type rule struct {
	name string
	on   func(*state) bool
}

func day(d time.Weekday) func(*state) bool {
	return func(s *state) bool { return s.now.Weekday() == d }
}

// Hour ranges are inclusive at both ends.
var autoRules = []rule{
	{"@HOME", func(s *state) bool { return slices.Contains(s.h.HomeWifi, s.wifi()) }},
	{"@WORK", func(s *state) bool { return slices.Contains(s.h.WorkWifi, s.wifi()) }},
	{"@MONDAY", day(time.Monday)},
	{"@TUESDAY", day(time.Tuesday)},
	{"@WEDNESDAY", day(time.Wednesday)},
	{"@THURSDAY", day(time.Thursday)},
	{"@FRIDAY", day(time.Friday)},
	{"@SATURDAY", day(time.Saturday)},
	{"@SUNDAY", day(time.Sunday)},
	{"@WEEKEND", func(s *state) bool { return !s.weekday() }},
	{"@MORNING", func(s *state) bool { return s.hourIn(8, 12) }},
	{"@AFTERNOON", func(s *state) bool { return s.hourIn(12, 17) }},
	{"@EVENING", func(s *state) bool { return s.hourIn(17, 22) }},
	{"@UKTIME", func(s *state) bool { return s.hourIn(0, 11) }},
	{"@EASTCOASTTIME", func(s *state) bool { return s.hourIn(6, 15) }},
	{"@LUNCH", func(s *state) bool { return s.hourIn(12, 13) }},
	{"@WORKDAY", func(s *state) bool { return s.hourIn(9, 18) && s.weekday() }},
	{"@DAILY", func(*state) bool { return true }},
	{tag.NameUrgent, func(*state) bool { return true }},
}

// AutoTags lists every tag Refresh manages, in evaluation order.
func AutoTags() []string {
	out := make([]string, len(autoRules))
	for i, r := range autoRules {
		out[i] = r.name
	}
	return out
}

// IsAuto reports whether name is managed by Refresh.
func IsAuto(name string) bool {
	for _, r := range autoRules {
		if r.name == name {
			return true
		}
	}
	return false
}

// Refresh drops every automatic tag from tags and appends the automatic
// tags that hold right now. Other tags keep their order.
func (h *Handler) Refresh(tags []string) []string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	s := &state{now: now(), h: h, wifi: h.cachedWifi()}

	out := make([]string, 0, len(tags)+len(autoRules))
	for _, t := range tags {
		if !IsAuto(t) {
			out = append(out, t)
		}
	}
	for _, r := range autoRules {
		if r.on(s) {
			out = append(out, r.name)
		}
	}
	return out
}

// cachedWifi asks for the network at most once per refresh.
func (h *Handler) cachedWifi() func() string {
	var (
		done bool
		ssid string
	)
	return func() string {
		if !done {
			done = true
			if h.Wifi != nil {
				ssid = h.Wifi()
			}
		}
		return ssid
	}
}

// CommandWifi returns a Wifi func that runs command and reads the network
// name from its output. Failures yield "".
func CommandWifi(command string) func() string {
	return func() string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, fields[0], fields[1:]...).Output()
		if err != nil {
			log.Debug("wifi lookup failed", "command", command, "err", err)
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

// Normalize upper-cases a context name and prefixes @ when it has no
// sigil.
func Normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if name[0] != tag.SigilContext && name[0] != tag.SigilProject {
		name = string(tag.SigilContext) + name
	}
	return name
}

// RandomProject keeps the context tags of current and adds pick(projects).
// It returns current unchanged when there are no projects.
func RandomProject(current, projects []string, pick func(n int) int) []string {
	out := tag.FilterBySigil(current, tag.SigilContext)
	if len(projects) == 0 {
		return current
	}
	return append(out, projects[pick(len(projects))])
}
