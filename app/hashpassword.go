package app

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/auth"
)

// ErrEmptyPassword is returned by hash-password when no password was given.
var ErrEmptyPassword = errors.New("password is empty")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(hashPasswordCmd)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the argon2id hash of a password read from the argument or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string

		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return ErrEmptyPassword
			}

			password = strings.TrimRight(line, "\r\n")
		}

		if password == "" {
			return ErrEmptyPassword
		}

		encoded, err := auth.NewPasswordHasher(nil).Hash(password)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)

		return err
	},
}
