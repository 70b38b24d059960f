package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/weatherengine/maritime/sdk/go"
)

// newRecommendationsCmd creates the recommendations command group
func newRecommendationsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Review and apply operational recommendations",
	}
	cmd.AddCommand(
		newRecsListCmd(opts),
		newRecsAnalyzeCmd(opts),
		newRecsRefreshCmd(opts),
		newRecsApplyCmd(opts),
	)
	return cmd
}

func newRecsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the current recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			set, err := opts.client().Recommendations(ctx)
			if err != nil {
				return err
			}
			return opts.showSet(cmd, set)
		},
	}
}

func newRecsAnalyzeCmd(opts *cliOptions) *cobra.Command {
	var cond sdk.Conditions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate recommendations for the given conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			set, err := opts.client().Analyze(ctx, cond)
			if err != nil {
				return err
			}
			return opts.showSet(cmd, set)
		},
	}
	cmd.Flags().Float64Var(&cond.Wind, "wind", 0, "wind speed in knots")
	cmd.Flags().Float64Var(&cond.Wave, "wave", 0, "wave height in meters")
	cmd.Flags().Float64Var(&cond.Visibility, "visibility", 0, "visibility in km")
	for _, f := range []string{"wind", "wave", "visibility"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newRecsRefreshCmd(opts *cliOptions) *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Pull live conditions for a city and re-analyze",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			set, err := opts.client().RefreshConditions(ctx, city)
			if err != nil {
				return err
			}
			return opts.showSet(cmd, set)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city name (default: server default city)")
	return cmd
}

func newRecsApplyCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <id>",
		Short: "Apply a recommendation through the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()
			res, err := opts.client().ApplyRecommendation(ctx, id)
			if err != nil {
				return err
			}
			if done, err := opts.printJSON(cmd, res); done {
				return err
			}
			out := cmd.OutOrStdout()
			if res.AlreadyApplied {
				fmt.Fprintf(out, "%q was already applied\n", res.Recommendation.Title)
				return nil
			}
			fmt.Fprintf(out, "%s %q\n", goodFormat("Applied"), res.Recommendation.Title)
			if res.Message != "" {
				fmt.Fprintln(out, mutedFormat(res.Message))
			}
			return nil
		},
	}
}

func (o *cliOptions) showSet(cmd *cobra.Command, set *sdk.RecommendationSet) error {
	if done, err := o.printJSON(cmd, set); done {
		return err
	}
	printRecommendations(cmd.OutOrStdout(), set)
	return nil
}
