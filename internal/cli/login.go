package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/paydash/internal/core/domain"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange credentials for a session",
	Long: `Posts credentials to the backend login endpoint and stores the returned
token pair. With the redis session backend the session is shared by later
invocations. The password is read from PAYDASH_PASSWORD or stdin.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", os.Getenv("PAYDASH_EMAIL"), "account email")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if loginEmail == "" {
		return fmt.Errorf("--email is required")
	}
	password := os.Getenv("PAYDASH_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Client.Login(ctx, domain.Credentials{Email: loginEmail, Password: password}); err != nil {
		return err
	}
	fmt.Println(Green("✓"), "Logged in as", Bold(loginEmail))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	app.Client.Logout()
	fmt.Println(Green("✓"), "Session cleared")
	return nil
}
