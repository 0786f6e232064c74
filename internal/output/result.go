package output

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zinc-sig/robotharness/internal/runner"
)

type Result struct {
	RunID            string          `json:"run_id"`
	Script           string          `json:"script"`
	Status           string          `json:"status"`
	Expected         string          `json:"expected,omitempty"`
	Actual           string          `json:"actual,omitempty"`
	Diff             string          `json:"diff,omitempty"`
	Error            string          `json:"error,omitempty"`
	ExecutionTime    int64           `json:"execution_time"` // in milliseconds
	ExecutionSeconds decimal.Decimal `json:"execution_seconds"`
	Timeout          *int64          `json:"timeout,omitempty"` // in milliseconds
	Score            *int            `json:"score,omitempty"`
	Context          any             `json:"context,omitempty"`

	// Webhook status (only in local output, not sent to webhook)
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

// Options carries the fields of a Result that do not come from the runner.
type Options struct {
	RunID    string
	Script   string
	Expected string // artifact path
	Actual   string // artifact path
	Diff     string // artifact path
	Timeout  time.Duration
	ScoreSet bool
	Score    int
	Context  any
}

// New builds the JSON result of one run. Artifact paths are reported only
// for runs that produced them. The score is reported only when requested,
// and is zeroed unless the run succeeded.
func New(r *runner.Result, opts Options) *Result {
	res := &Result{
		RunID:            opts.RunID,
		Script:           opts.Script,
		Status:           string(r.Status),
		Error:            r.ErrorString(),
		ExecutionTime:    r.ExecutionTime.Milliseconds(),
		ExecutionSeconds: Seconds(r.ExecutionTime),
		Context:          opts.Context,
	}
	// Artifacts exist only once the script ran to completion
	switch r.Status {
	case runner.StatusMismatch:
		res.Diff = opts.Diff
		fallthrough
	case runner.StatusSuccess:
		res.Expected = opts.Expected
		res.Actual = opts.Actual
	}

	if opts.Timeout > 0 {
		ms := opts.Timeout.Milliseconds()
		res.Timeout = &ms
	}

	if opts.ScoreSet {
		score := 0
		if r.Status == runner.StatusSuccess {
			score = opts.Score
		}
		res.Score = &score
	}
	return res
}

// Seconds converts d to seconds rounded to the millisecond.
func Seconds(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Milliseconds()).Shift(-3)
}

// ForWebhook returns a copy without the local-only webhook status fields.
func (r *Result) ForWebhook() *Result {
	c := *r
	c.WebhookSent = false
	c.WebhookError = ""
	return &c
}
