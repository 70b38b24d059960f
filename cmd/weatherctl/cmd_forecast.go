package main

import (
	"github.com/spf13/cobra"
)

// newForecastCmd creates the forecast subcommand
func newForecastCmd(opts *cliOptions) *cobra.Command {
	var (
		city string
		plan bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the 10-day maritime forecast",
		Long: `Show the 10-day forecast for a city. Days marked * are estimated.
With --plan only the sailing-window analysis is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			c := opts.client()
			if plan {
				rp, err := c.RoutePlan(ctx, city)
				if err != nil {
					return err
				}
				if done, err := opts.printJSON(cmd, rp); done {
					return err
				}
				printRoutePlan(cmd.OutOrStdout(), rp)
				return nil
			}
			fc, err := c.Forecast(ctx, city)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, fc); done {
				return err
			}
			printForecast(cmd.OutOrStdout(), fc)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city name (default: server default city)")
	cmd.Flags().BoolVar(&plan, "plan", false, "show the route plan only")
	return cmd
}
