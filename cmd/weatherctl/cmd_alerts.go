package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newAlertsCmd creates the alerts command group
func newAlertsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List, acknowledge and dismiss maritime alerts",
	}
	cmd.AddCommand(
		newAlertsListCmd(opts),
		newAlertsStatsCmd(opts),
		newAlertsAckCmd(opts),
		newAlertsAckAllCmd(opts),
		newAlertsDismissCmd(opts),
		newAlertsArchiveCmd(opts),
	)
	return cmd
}

func newAlertsListCmd(opts *cliOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		Long:  "List alerts. --filter accepts all, unacknowledged, active, high, medium or low.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			list, err := opts.client().Alerts(ctx, filter)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, list); done {
				return err
			}
			printAlerts(cmd.OutOrStdout(), list, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "alert filter")
	return cmd
}

func newAlertsStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show alert statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			stats, err := opts.client().AlertStats(ctx)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, stats); done {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func newAlertsAckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			res, err := opts.client().Acknowledge(ctx, id)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, res); done {
				return err
			}
			if res.NoActionNeeded {
				fmt.Fprintf(cmd.OutOrStdout(), "Alert %d was already acknowledged\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s alert %d\n", goodFormat("Acknowledged"), id)
			return nil
		},
	}
}

func newAlertsAckAllCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ack-all",
		Short: "Acknowledge every unacknowledged alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			res, err := opts.client().AcknowledgeAll(ctx)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, res); done {
				return err
			}
			if res.NoActionNeeded {
				fmt.Fprintln(cmd.OutOrStdout(), "All alerts are already acknowledged")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d alerts\n", goodFormat("Acknowledged"), res.Acknowledged)
			return nil
		},
	}
}

func newAlertsDismissCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss an alert into the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			archived, err := opts.client().Dismiss(ctx, id)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, archived); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dismissed alert %d %s\n", id, mutedFormat(archived.ArchiveID))
			return nil
		},
	}
}

func newAlertsArchiveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "List dismissed alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			list, err := opts.client().ArchivedAlerts(ctx)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, list); done {
				return err
			}
			printArchived(cmd.OutOrStdout(), list, time.Now())
			return nil
		},
	}
}
