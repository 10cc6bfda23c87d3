package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qwerty1432/Memory-Research/internal/client"
)

var (
	chatSession  string
	chatNoStream bool
	chatApprove  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <user_id>",
	Short: "Chat with the companion as a participant",
	Long: "Starts a session (or resumes --session) and reads messages from stdin, one per line. " +
		"Type /end or send EOF to end the session.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		return runChat(cmd.Context(), c, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "continue an open session instead of starting one")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "wait for whole replies instead of streaming")
	chatCmd.Flags().BoolVar(&chatApprove, "approve", false, "approve every proposed memory")
}

func runChat(ctx context.Context, c *client.Client, userID string, in io.Reader, out io.Writer) error {
	sessionID := chatSession
	if sessionID == "" {
		s, err := c.StartSession(ctx, userID)
		if err != nil {
			return err
		}
		sessionID = s.SessionID
	}
	fmt.Fprintf(out, "session %s\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/end" {
			break
		}

		reply, err := sendChat(ctx, c, userID, sessionID, line, out)
		if err != nil {
			return err
		}
		for _, cand := range reply.Candidates {
			if chatApprove {
				if err := c.ApproveMemory(ctx, cand.MemoryID); err != nil {
					return err
				}
				fmt.Fprintf(out, "  + remembered: %s\n", cand.Text)
				continue
			}
			fmt.Fprintf(out, "  ? candidate %s: %s\n", cand.MemoryID, cand.Text)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if _, err := c.EndSession(ctx, sessionID); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nsession ended")
	return nil
}

func sendChat(ctx context.Context, c *client.Client, userID, sessionID, message string, out io.Writer) (*client.ChatReply, error) {
	if chatNoStream {
		reply, err := c.Chat(ctx, userID, sessionID, message)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(out, reply.Response)
		return reply, nil
	}

	reply, err := c.ChatStream(ctx, userID, sessionID, message, func(tok string) {
		fmt.Fprint(out, tok)
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out)
	return reply, nil
}
