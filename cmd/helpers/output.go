package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zinc-sig/robotharness/internal/output"
	"github.com/zinc-sig/robotharness/internal/webhook"
)

// OutputJSON marshals v and prints it as one line
func OutputJSON(w io.Writer, v any) error {
	jsonOutput, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(jsonOutput))
	return err
}

// OutputJSONAndWebhook sends the result to the webhook when one is
// configured, then prints it. A webhook failure is recorded on the result
// instead of failing the command.
func OutputJSONAndWebhook(ctx context.Context, w, errOut io.Writer, result *output.Result, client *webhook.Client) error {
	if client != nil {
		if err := client.Send(ctx, result.ForWebhook()); err != nil {
			fmt.Fprintf(errOut, "[WEBHOOK] Error: %v\n", err)
			result.WebhookSent = false
			result.WebhookError = err.Error()
		} else {
			result.WebhookSent = true
		}
	}

	return OutputJSON(w, result)
}
