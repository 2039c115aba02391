package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openxnat/xnat-go/internal/config"
	"github.com/openxnat/xnat-go/internal/credfile"
	"github.com/openxnat/xnat-go/internal/xnat"
)

// EnvPass lets scripts supply the password without a prompt. It is read
// once at login and never stored.
const envPass = "XNAT_GO_PASS"

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the XNAT server",
		Long: `Exchange your username and password for an XNAT session token and save
it for later commands. The password is read from the ` + envPass + ` environment
variable when set, otherwise prompted on stdin. It is never written to disk.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the saved session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session identity",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	serverURL := resolvedCfg.Server.URL
	if serverURL == "" {
		return errors.New("no server URL — set server.url in the config file or pass --url")
	}

	username := resolvedCfg.Server.Username
	if username == "" {
		return errors.New("no username — set server.username in the config file or pass --user")
	}

	password := os.Getenv(envPass)
	if password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", username, serverURL)

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return errors.New("no password provided")
		}

		password = strings.TrimSpace(scanner.Text())
	}

	if password == "" {
		return errors.New("empty password")
	}

	sessionPath := config.SessionPath(serverURL)
	if sessionPath == "" {
		return fmt.Errorf("cannot determine session path for server %q", serverURL)
	}

	if _, err := xnat.Login(cmd.Context(), serverURL, username, password, sessionPath, logger); err != nil {
		return err
	}

	statusf(flagQuiet, "Logged in to %s as %s\n", serverURL, username)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	serverURL := resolvedCfg.Server.URL
	if serverURL == "" {
		return errors.New("no server URL — set server.url in the config file or pass --url")
	}

	if err := xnat.Logout(cmd.Context(), serverURL, config.SessionPath(serverURL), logger); err != nil {
		return err
	}

	statusf(flagQuiet, "Logged out of %s\n", serverURL)

	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	serverURL := resolvedCfg.Server.URL
	if serverURL == "" {
		return errors.New("no server URL — set server.url in the config file or pass --url")
	}

	cf, err := credfile.Load(config.SessionPath(serverURL))
	if err != nil {
		return err
	}

	if cf == nil {
		return fmt.Errorf("not logged in to %s — run 'xnat-go login' first", serverURL)
	}

	fmt.Printf("%s@%s (session acquired %s)\n", cf.Username, cf.Server, formatTime(cf.AcquiredAt))

	return nil
}
