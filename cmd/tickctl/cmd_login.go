package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/tickctl/internal/session"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [api-key]",
	Short: "Validate an API key and store it as the active session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Fprint(os.Stderr, "API key: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("empty API key")
		}

		if err := session.Validate(cmd.Context(), e.client, key); err != nil {
			if errors.Is(err, session.ErrUnreachable) {
				return fmt.Errorf("API is not reachable at %s; start the service first", e.cfg.BaseURL)
			}
			return fmt.Errorf("key rejected; check the API key configured on the service")
		}

		if err := e.store.Set(key); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		// entries fetched under the old credential are unusable
		e.cache.Reset()

		fmt.Println("Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.store.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		e.cache.Reset()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show whether a session is active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		key, ok := e.store.Get()
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}
		tail := key
		if len(tail) > 4 {
			tail = tail[len(tail)-4:]
		}
		fmt.Printf("Logged in (key ***%s), API at %s\n", tail, e.cfg.BaseURL)
		return nil
	},
}
