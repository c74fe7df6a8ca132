package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/backoffice/internal/chat"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/store"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Talk to the assistant",
		Long:  "chat sends one prompt, or with no argument starts an interactive conversation. The key is set with `chat key`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newChatSession(a)
			if err != nil {
				return a.fail(err)
			}
			if len(args) > 0 {
				return sendPrompt(cmd, a, s, strings.Join(args, " "))
			}
			return chatLoop(cmd, a, s)
		},
	}

	key := &cobra.Command{
		Use:   "key <api-key>",
		Short: `Store the chat API key ("-" forgets it)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				if err := a.local.Delete(store.ChatAPIKeyKey); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "chat key removed")
				return nil
			}
			if err := a.local.Set(store.ChatAPIKeyKey, strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "chat key saved")
			return nil
		},
	}

	modelCmd := &cobra.Command{
		Use:   "model [name]",
		Short: "Show or override the chat model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := a.local.Set(store.ChatModelKey, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.out, chatModel(a))
			return nil
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := store.NewChatStore(a.db).List(0)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(msgs)
			}
			for _, m := range msgs {
				printMessage(a, m)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.NewChatStore(a.db).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "conversation cleared")
			return nil
		},
	}

	cmd.AddCommand(key, modelCmd, history, clearCmd)
	return cmd
}

func chatModel(a *app) string {
	if m, err := a.local.Get(store.ChatModelKey); err == nil && m != "" {
		return m
	}
	return a.cfg.ChatModel
}

func newChatSession(a *app) (*chat.Session, error) {
	key, err := a.local.Get(store.ChatAPIKeyKey)
	if errors.Is(err, store.ErrNotFound) || key == "" {
		return nil, chat.ErrNoAPIKey
	}
	if err != nil {
		return nil, err
	}
	m, err := chat.NewOpenAIModel(key, a.cfg.ChatURL, chatModel(a))
	if err != nil {
		return nil, err
	}
	opts := []chat.Option{chat.WithLogger(a.logger)}
	if a.cfg.ChatPrompt != "" {
		opts = append(opts, chat.WithSystemPrompt(a.cfg.ChatPrompt))
	}
	return chat.NewSession(m, store.NewChatStore(a.db), opts...), nil
}

func sendPrompt(cmd *cobra.Command, a *app, s *chat.Session, prompt string) error {
	reply, err := s.Send(cmd.Context(), prompt)
	if err != nil {
		return a.fail(err)
	}
	if a.jsonOut {
		return a.printJSON(reply)
	}
	fmt.Fprintln(a.out, reply.Content)
	return nil
}

func chatLoop(cmd *cobra.Command, a *app, s *chat.Session) error {
	fmt.Fprintln(a.out, `type a message, "/clear" to start over, "/quit" to leave`)
	sc := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(a.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := s.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "conversation cleared")
			continue
		}
		reply, err := s.Send(cmd.Context(), line)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", a.fail(err))
			continue
		}
		fmt.Fprintln(a.out, reply.Content)
	}
}

func printMessage(a *app, m model.ChatMessage) {
	who := "you"
	if m.Role == model.RoleAssistant {
		who = "assistant"
	}
	fmt.Fprintf(a.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Content)
}
