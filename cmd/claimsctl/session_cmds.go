package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	usernameFlag string
	passwordFlag string
	watchFlag    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := usernameFlag
		if username == "" {
			username = prompt("Email: ")
		}
		password := passwordFlag
		if password == "" {
			password = prompt("Password: ")
		}

		token, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		gate.Login(token)
		fmt.Println("Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a valid session is present",
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus()
		if !watchFlag {
			return nil
		}

		// Re-derive and reprint on every session change, including a token
		// written or removed by another process.
		changes := gate.Subscribe()
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- gate.Watch(cmd.Context())
		}()
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case err := <-watchErr:
				if err != nil && cmd.Context().Err() == nil {
					return fmt.Errorf("session watch failed: %w", err)
				}
				return nil
			case <-changes:
				printStatus()
			}
		}
	},
}

func printStatus() {
	if gate.IsAuthenticated() {
		fmt.Println("Session: authenticated")
	} else {
		fmt.Println("Session: not authenticated (run 'claimsctl login')")
	}
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	loginCmd.Flags().StringVarP(&usernameFlag, "username", "u", "", "Account email (prompted when omitted)")
	loginCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password (prompted when omitted)")
	statusCmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep running and report session changes")
}
