package cmd

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowgraph/knowgraph/internal/api"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin API helpers",
}

var adminHashTokenCmd = &cobra.Command{
	Use:   "hash-token [token|-]",
	Short: "Hash an admin bearer token for KNOWGRAPH_ADMIN_TOKEN_HASH",
	Long: "Hashes the given token with bcrypt. Pass - to read it from stdin.\n" +
		"Without an argument a random token is generated and printed once.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		generated := false
		switch {
		case len(args) == 0:
			buf := make([]byte, 24)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			token = base64.RawURLEncoding.EncodeToString(buf)
			generated = true
		case args[0] == "-":
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token = strings.TrimSpace(line)
		default:
			token = args[0]
		}
		if len(token) < 12 {
			return fmt.Errorf("token must be at least 12 characters")
		}

		hash, err := api.HashToken(token)
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		if generated {
			fmt.Printf("Token: %s\n", token)
		}
		fmt.Printf("KNOWGRAPH_ADMIN_TOKEN_HASH='%s'\n", hash)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminHashTokenCmd)
}
