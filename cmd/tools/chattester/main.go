package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	server    string
	guestID   string
	weddingID string
	slug      string
	session   string
	language  string
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "chattester",
		Short: "Talk to a running ShadiCards concierge",
		Long: `chattester sends guest messages to a concierge server and prints the
reply, the follow-up suggestions and the UI annotations.

Examples:
  chattester ask "When is the sangeet?" --guest guest-meera --wedding wed-priya-arjun
  chattester ask "Where is the venue?" --slug priya-weds-arjun --lang hi
  chattester transcript 3f0c...`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr("CONCIERGE_URL", "http://localhost:8080"), "Concierge base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "Request timeout")

	ask := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to POST /api/chatbot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(opts.server, opts.timeout)
			resp, err := client.Ask(cmd.Context(), chatRequest{
				Message:     args[0],
				GuestID:     opts.guestID,
				WeddingID:   opts.weddingID,
				WebsiteSlug: opts.slug,
				SessionID:   opts.session,
				Language:    opts.language,
			})
			if err != nil {
				return err
			}
			printReply(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	ask.Flags().StringVar(&opts.guestID, "guest", "", "Guest id")
	ask.Flags().StringVar(&opts.weddingID, "wedding", "", "Wedding id")
	ask.Flags().StringVar(&opts.slug, "slug", "", "Wedding website slug")
	ask.Flags().StringVar(&opts.session, "session", "", "Existing session id")
	ask.Flags().StringVar(&opts.language, "lang", "en", "Reply language code")

	transcript := &cobra.Command{
		Use:   "transcript <session-id>",
		Short: "Print the stored messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(opts.server, opts.timeout)
			t, err := client.Transcript(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), t)
			return nil
		},
	}

	root.AddCommand(ask, transcript)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
