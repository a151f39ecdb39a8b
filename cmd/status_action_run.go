package cmd

import (
	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/status"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var (
	actionRunOpts        status.ActionRunOpts
	actionRunFailOnError bool
)

var statusActionRunCmd = &cobra.Command{
	Use:   "action-run",
	Short: "Update the status of a workflow run",
	Long: `Report a workflow run's progress. Sequence numbers are 0 (queued),
10 (in progress) and 20 (completed).

Failures are only warnings unless --fail-on-error is set.`,
	Example: `  choreo-steps status action-run --base-url $API --token $TOKEN \
    --component-id c1 --workflow-id $RUN_ID --sequence-no 10 --action-type BUILD_DEPLOY`,
	RunE: runStatusActionRun,
}

func init() {
	f := statusActionRunCmd.Flags()
	f.StringVar(&actionRunOpts.BaseURL, "base-url", "", "platform API base URL (required)")
	f.StringVar(&actionRunOpts.Token, "token", "", "bearer token (required)")
	f.StringVar(&actionRunOpts.ComponentID, "component-id", "", "component ID (required)")
	f.StringVar(&actionRunOpts.WorkflowID, "workflow-id", "", "workflow run ID (required)")
	f.IntVar(&actionRunOpts.SequenceNo, "sequence-no", status.SequenceQueued, "sequence number: 0, 10 or 20")
	f.StringVar(&actionRunOpts.ActionType, "action-type", "", "BUILD_DEPLOY, MEDIATION_CODE_GENERATOR or CONFIGURABLE_GENERATOR (required)")
	f.BoolVar(&actionRunFailOnError, "fail-on-error", false, "exit non-zero when the update fails")
	statusCmd.AddCommand(statusActionRunCmd)
}

func runStatusActionRun(c *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	client, err := newCallbackClient()
	if err != nil {
		return err
	}

	if err := status.ActionRun(c.Context(), client, &actionRunOpts); err != nil {
		if actionRunFailOnError {
			return err
		}

		w.Warningf("Action run status not updated: %v", err)

		return nil
	}

	w.Successf("Action run %s status updated", actionRunOpts.WorkflowID)

	return nil
}
