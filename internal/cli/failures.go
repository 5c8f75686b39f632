package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/vietddude/paydash/internal/core/domain"
)

var failuresLimit int

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recent failed requests from the journal",
	RunE:  runFailures,
}

func init() {
	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 20, "number of entries")
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	list, err := app.Failures.Recent(ctx, failuresLimit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println(Dim("  (no results)"))
		return nil
	}

	headerFmt := color.New(color.Bold, color.Underline).SprintfFunc()
	columnFmt := color.New(color.Faint).SprintfFunc()

	tbl := table.New("TIME", "METHOD", "URL", "CLASS", "STATUS", "ATTEMPTS", "MESSAGE")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	for _, fr := range list {
		tbl.AddRow(
			fr.OccurredAt.Local().Format(time.DateTime),
			fr.Method,
			fr.URL,
			classLabel(fr.Class),
			statusLabel(fr.StatusCode),
			fr.Attempts,
			message(fr),
		)
	}
	tbl.Print()
	return nil
}

func classLabel(c domain.StatusClass) string {
	if c.Transient() {
		return Yellow(string(c))
	}
	return Red(string(c))
}

func statusLabel(code int) string {
	if code == 0 {
		return "-"
	}
	return fmt.Sprint(code)
}

func message(fr *domain.FailedRequest) string {
	if len(fr.ValidationFields) == 0 {
		return fr.Message
	}
	return fmt.Sprintf("%s [%s]", fr.Message, strings.Join(fr.ValidationFields, ", "))
}
