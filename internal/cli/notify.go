package cli

import (
	gocontext "context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/adapters/notify"
	"github.com/example/labctl/internal/config"
	"github.com/example/labctl/internal/wire"
)

var levelColors = map[string]*color.Color{
	notify.LevelInfo:    color.New(color.FgBlue),
	notify.LevelSuccess: color.New(color.FgGreen),
	notify.LevelWarning: color.New(color.FgYellow),
	notify.LevelError:   color.New(color.FgRed),
}

// NotifyCmd returns the notify command
func NotifyCmd() *cobra.Command {
	var message string
	var level string
	var source string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a notification to the user session",
		Long: `Append a notification to the log and, when enabled in settings,
deliver it through the platform notifier. Agents running inside labs use
this to reach the user.

Examples:
  labctl notify --message "tests green" --level success --source auth-fix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("--message is required")
			}
			if _, ok := levelColors[level]; !ok {
				return fmt.Errorf("invalid level %q (use info, success, warning, or error)", level)
			}

			if err := wire.Notifier().Notify(message, level, source); err != nil {
				return err
			}
			levelColors[level].Printf("%s\n", message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "notification text")
	cmd.Flags().StringVarP(&level, "level", "l", notify.LevelInfo, "info, success, warning, or error")
	cmd.Flags().StringVarP(&source, "source", "s", "user", "originating lab or tool")

	return cmd
}

// NotificationsCmd returns the notifications command
func NotificationsCmd() *cobra.Command {
	var last int
	var follow bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show the notification log",
		Long: `Show notifications from labs and tools.

With --follow, new entries are printed as they arrive until interrupted.

Examples:
  labctl notifications
  labctl notifications --last 20
  labctl notifications --follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NotificationsPath()
			if err != nil {
				return err
			}

			entries, err := notify.ReadEntries(path, last)
			if err != nil {
				return err
			}
			if len(entries) == 0 && !follow {
				fmt.Println("No notifications yet.")
				return nil
			}
			for _, e := range entries {
				printEntry(e)
			}

			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(gocontext.Background(), os.Interrupt)
			defer stop()
			return notify.Follow(ctx, path, printEntry)
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "show only the last N entries")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new entries until interrupted")

	return cmd
}

func printEntry(e notify.Entry) {
	c, ok := levelColors[e.Level]
	if !ok {
		c = levelColors[notify.LevelInfo]
	}
	fmt.Printf("%s %s %s\n",
		e.Timestamp.Local().Format("15:04:05"),
		c.Sprintf("[%s]", e.Source),
		e.Message,
	)
}

// ResponsesCmd returns the responses command
func ResponsesCmd() *cobra.Command {
	var source string
	var last int
	var clear bool

	cmd := &cobra.Command{
		Use:   "responses",
		Short: "Show user replies to notifications",
		Long: `Show replies the user gave to interactive notifications.

Examples:
  labctl responses
  labctl responses --source auth-fix --last 5
  labctl responses --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResponsesPath()
			if err != nil {
				return err
			}

			responses, err := notify.ReadResponses(path, source, last)
			if err != nil {
				return err
			}
			if len(responses) == 0 {
				fmt.Println("No responses yet.")
			}
			for _, r := range responses {
				fmt.Printf("%s %s\n",
					r.Timestamp.Local().Format("15:04:05"),
					color.New(color.FgCyan).Sprintf("[%s]", r.Source),
				)
				fmt.Printf("  asked: %s\n", r.OriginalMessage)
				fmt.Printf("  reply: %s\n", r.Reply)
			}

			if clear {
				if err := notify.ClearResponses(path); err != nil {
					return err
				}
				fmt.Printf("%s Responses cleared\n", okMark)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "only responses for this lab")
	cmd.Flags().IntVarP(&last, "last", "n", 0, "show only the last N responses")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete the responses log after printing")

	return cmd
}
