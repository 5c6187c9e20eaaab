package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scentadmin/internal/api"
)

type loginOptions struct {
	Email         string
	Password      string
	PasswordStdin bool
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login --email <email> [--password-stdin]",
		Short: "Exchange admin credentials for a token and print it",
		Long: "Prints the bearer token on stdout so it can be stored in API_TOKEN:\n\n" +
			"  export API_TOKEN=$(scentctl login --email admin@example.com --password-stdin < pw.txt)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Email) == "" {
				return errors.New("--email is required")
			}
			password := opts.Password
			if opts.PasswordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				password = os.Getenv("API_PASSWORD")
			}
			if password == "" {
				return errors.New("no password: pass --password-stdin or set API_PASSWORD")
			}

			rt, err := root.setup(cmd, false)
			if err != nil {
				return err
			}
			token, err := rt.client.Login(cmd.Context(), api.Credentials{Email: opts.Email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "admin password (prefer --password-stdin or $API_PASSWORD)")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}
