package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/vietddude/paydash/internal/api"
	"github.com/vietddude/paydash/internal/core/events"
)

var (
	Bold   = color.New(color.Bold).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

// attachToasts prints notifications and navigation requests from the bus.
func attachToasts(bus *events.Bus, w io.Writer) {
	bus.On(events.Notification, func(args ...any) {
		if len(args) == 0 {
			return
		}
		n, ok := args[0].(api.Notification)
		if !ok {
			return
		}
		fmt.Fprintln(w, toast(n))
	})
	bus.On(events.Navigate, func(args ...any) {
		if len(args) == 0 {
			return
		}
		fmt.Fprintf(w, "%s %v\n", Cyan("→"), args[0])
	})
}

func toast(n api.Notification) string {
	switch n.Level {
	case api.LevelError:
		return Red("✗ ") + n.Message
	case api.LevelWarning:
		return Yellow("! ") + n.Message
	default:
		return Green("✓ ") + n.Message
	}
}

// printJSON pretty-prints body when it is JSON and writes it raw otherwise.
func printJSON(body []byte) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		os.Stdout.Write(body)
		fmt.Println()
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
