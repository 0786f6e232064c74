package robot

import "sync"

// Result holds the scripts reported by the robot for one execution.
type Result struct {
	Expected string
	Actual   string

	once    sync.Once
	release func()
}

// NewResult returns a result owning expected and actual. release, if not nil,
// is called the first time Release is called.
func NewResult(expected, actual string, release func()) *Result {
	return &Result{
		Expected: expected,
		Actual:   actual,
		release:  release,
	}
}

// Matches reports whether the actual script is identical to the expected one.
func (r *Result) Matches() bool {
	return r.Actual == r.Expected
}

// Release hands the result back to the engine that produced it. It is safe to
// call more than once and on a nil result.
func (r *Result) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}
