// Command sheetcheck validates spreadsheets offline with the same rules the
// server applies on upload.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errRejected is returned when a validated file has rejected rows or sheet
// errors, so scripts can rely on the exit status.
var errRejected = errors.New("file has rejected rows")

func main() {
	// .env is optional here; IMPORT_TIMEZONE is the only setting read.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetcheck",
		Short:         "Validate Name/Date/Amount spreadsheets before import",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd(), newTemplateCmd())
	return root
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <out.xlsx>",
		Short: "Write an empty workbook with the required headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTemplate(args[0])
		},
	}
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate <file.xlsx|file.csv>",
		Short: "Validate every sheet of a workbook against a reference month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			opts.monthSet = cmd.Flags().Changed("month")
			opts.yearSet = cmd.Flags().Changed("year")
			return runValidate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.month, "month", 0, "Reference month 1-12 (default: current month)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Reference year (default: current year)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the outcomes as JSON")
	cmd.Flags().StringVar(&opts.timezone, "tz", os.Getenv("IMPORT_TIMEZONE"), "Timezone for the current month (default: UTC)")
	return cmd
}
