package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/paydash/internal/api"
)

var (
	reqBody    string
	reqHeaders []string
	reqRetries int
	reqVerbose bool
)

var requestCmd = &cobra.Command{
	Use:   "request METHOD PATH",
	Short: "Send a request to the backend through the resilient client",
	Example: `  paydash request GET /vendors
  paydash request POST /payouts --data '{"vendorId":"v_1","amount":1000}'
  paydash request GET /transactions --retries 3`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVarP(&reqBody, "data", "d", "", "request body (JSON); @file reads a file")
	requestCmd.Flags().StringArrayVarP(&reqHeaders, "header", "H", nil, "extra header, 'Key: Value'")
	requestCmd.Flags().IntVar(&reqRetries, "retries", 0, "wrap the request in an outer retry loop (idempotent requests only)")
	requestCmd.Flags().BoolVarP(&reqVerbose, "verbose", "v", false, "print status and latency")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	method := strings.ToUpper(args[0])
	path := args[1]

	opts, err := headerOptions(reqHeaders)
	if err != nil {
		return err
	}
	body, err := readBody(reqBody)
	if err != nil {
		return err
	}

	var resp *api.Response
	if reqRetries > 0 {
		resp, err = app.Client.SendWithRetry(ctx, api.Request{
			Method:  method,
			URL:     path,
			Body:    body,
			Options: opts,
		}, reqRetries)
	} else {
		resp, err = app.Client.Send(ctx, method, path, body, opts...)
	}
	if err != nil {
		if e, ok := api.AsError(err); ok && e.Response != nil && len(e.Response.Body) > 0 && reqVerbose {
			printJSON(e.Response.Body)
		}
		return err
	}

	if reqVerbose {
		fmt.Fprintf(os.Stderr, "%s %s\n", Bold(fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))),
			Dim(resp.Latency.String()))
	}
	if len(resp.Body) > 0 {
		printJSON(resp.Body)
	}
	return nil
}

func headerOptions(headers []string) ([]api.RequestOption, error) {
	var opts []api.RequestOption
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Key: Value'", h)
		}
		opts = append(opts, api.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	return opts, nil
}

func readBody(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	if name, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}
