package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tumdlr/pkg/auth"
	"tumdlr/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Tumblr credentials",
	Long: `Manage stored Tumblr credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TUMDLR_AUTH_EMAIL / TUMDLR_AUTH_PASSWORD)

Credentials are only needed for dashboard-only blogs; public blogs
download without them.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Store Tumblr credentials securely",
	Long: `Store Tumblr credentials in the system keychain or an encrypted file.

You will be prompted for the account email (if not provided) and the
password. The password is read without echoing.`,
	Example: `  # Interactive login
  tumdlr auth login

  # Login with email
  tumdlr auth login me@example.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [email]",
	Short: "Remove stored credentials",
	Long: `Remove stored Tumblr credentials.

Without an email, all stored accounts are removed after confirmation.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Tumblr accounts with passwords masked.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var email string
	if len(args) > 0 {
		email = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Tumblr email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read email", err.Error())
			os.Exit(1)
		}
		email = strings.TrimSpace(input)
	}
	if email == "" {
		ui.PrintError("Email is required")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	account := &auth.Account{
		Email:    email,
		Password: password,
	}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials stored for " + email)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		email := strings.TrimSpace(args[0])
		if err := manager.Delete(email); err != nil {
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Removed credentials for " + email)
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		return
	}

	fmt.Printf("This removes all %d stored account(s). Continue? (y/N): ", len(accounts))
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("Aborted.")
		return
	}

	if err := manager.DeleteAll(); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("All stored credentials removed")
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		fmt.Println("\nTo store credentials, run:")
		fmt.Println("  tumdlr auth login")
		return
	}

	ui.PrintHighlight("Stored accounts:")
	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("  %s %s\n", ui.Green("•"), sanitized.Email)
		fmt.Printf("    password: %s\n", ui.Dim(sanitized.Password))
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("    updated:  %s\n", ui.Dim(sanitized.LastModified.Format("2006-01-02 15:04")))
		}
	}
}
