package main

import (
	"github.com/spf13/cobra"

	"trainerapp/internal/domain/civiltime"
)

func newTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time",
		Short: "Convert between Colombia wall-clock time and UTC",
	}

	toUTC := &cobra.Command{
		Use:     "to-utc DATE TIME",
		Short:   "Convert a Colombia date (YYYY-MM-DD) and time (HH:mm) to a UTC instant",
		Example: "  trainerctl time to-utc 2023-10-27 20:00",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iso, err := civiltime.ToUTCISOString(args[0], args[1])
			if err != nil {
				return err
			}
			return printResult(cmd, map[string]string{"utc": iso}, iso)
		},
	}

	toLocal := &cobra.Command{
		Use:   "to-local ISO",
		Short: "Show the Colombia date and time of a UTC instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := civiltime.ParseUTC(args[0])
			if err != nil {
				return err
			}
			date, clock := civiltime.ToColombianDateString(t), civiltime.ToColombianTimeString(t)
			return printResult(cmd, map[string]string{"date": date, "time": clock}, date+" "+clock)
		},
	}

	format := &cobra.Command{
		Use:   "format ISO",
		Short: "Render a UTC instant the way the app shows it (es-CO)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			long, err := civiltime.FormatDate(args[0])
			if err != nil {
				return err
			}
			short, err := civiltime.FormatColombianTime(args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, map[string]string{"date": long, "time": short}, long, short)
		},
	}

	cmd.AddCommand(toUTC, toLocal, format)
	return cmd
}
