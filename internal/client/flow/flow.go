// Package flow defines the ordered funnel steps, their routes, and a
// navigator that tracks where the user currently is.
//
// The sequencer functions are pure: they only compute adjacent steps and
// routes. Moving the user is the navigator's job.
package flow

type Step string

const (
	Landing     Step = "landing"
	Intent      Step = "intent"
	SSOOptional Step = "sso_optional"
	Processing  Step = "processing"
	Preview     Step = "preview"
	Paywall     Step = "paywall"
	Reveal      Step = "reveal"
	Dashboard   Step = "dashboard"
)

var steps = []Step{Landing, Intent, SSOOptional, Processing, Preview, Paywall, Reveal, Dashboard}

var routes = map[Step]string{
	Landing:     "/",
	Intent:      "/intent",
	SSOOptional: "/sign-in",
	Processing:  "/processing",
	Preview:     "/preview",
	Paywall:     "/paywall",
	Reveal:      "/reveal",
	Dashboard:   "/dashboard",
}

// Steps returns the funnel in order. The slice is a copy.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// Index returns the position of s in the funnel, or -1 if s is unknown.
func Index(s Step) int {
	for i, v := range steps {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the step after s. It reports false for the last step and for
// unknown steps.
func Next(s Step) (Step, bool) {
	i := Index(s)
	if i < 0 || i+1 >= len(steps) {
		return "", false
	}
	return steps[i+1], true
}

// Previous returns the step before s. It reports false for the first step and
// for unknown steps.
func Previous(s Step) (Step, bool) {
	i := Index(s)
	if i <= 0 {
		return "", false
	}
	return steps[i-1], true
}

func Route(s Step) (string, bool) {
	r, ok := routes[s]
	return r, ok
}

func StepForRoute(route string) (Step, bool) {
	for s, r := range routes {
		if r == route {
			return s, true
		}
	}
	return "", false
}

func (s Step) Valid() bool {
	return Index(s) >= 0
}

func (s Step) String() string {
	return string(s)
}
