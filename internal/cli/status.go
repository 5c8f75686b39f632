package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/paydash/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, transport and failure journal status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	report := app.Health.CheckHealth(ctx)

	session := Red("none")
	if report.Authenticated {
		session = Green("active")
	}
	fmt.Printf("%-14s %s\n", Bold("Session"), session)
	fmt.Printf("%-14s %s\n", Bold("Transport"), report.Transport.Status)
	fmt.Printf("%-14s %d\n", Bold("In flight"), report.InFlight)

	fmt.Println()
	fmt.Println(Bold("Failures"))
	total := 0
	for _, class := range domain.AllClasses {
		n := report.Failures[class]
		total += n
		if n > 0 {
			fmt.Printf("  %-22s %d\n", class, n)
		}
	}
	if total == 0 {
		fmt.Println(Dim("  (none)"))
	}
	return nil
}
