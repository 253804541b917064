// Command gen-token signs HS256 tokens accepted by a gateway running with
// LOCAL_AUTH_MODE=hs256.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	secret   string
	name     string
	email    string
	audience string
	ttl      time.Duration
	count    int
	prefix   string
	start    int
	output   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := tokenOptions{}
	cmd := &cobra.Command{
		Use:          "gen-token [user-id]",
		Short:        "Sign development tokens for the gateway",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.secret == "" {
				opts.secret = os.Getenv("LOCAL_AUTH_SHARED_SECRET")
			}
			tokens, err := generateTokens(opts, args, time.Now())
			if err != nil {
				return err
			}
			if opts.output != "" {
				if err := writeTokens(opts.output, tokens); err != nil {
					return fmt.Errorf("write tokens: %w", err)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), tokens[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.secret, "secret", "", "signing secret (default $LOCAL_AUTH_SHARED_SECRET)")
	f.StringVar(&opts.name, "name", "", "name claim")
	f.StringVar(&opts.email, "email", "", "email claim")
	f.StringVar(&opts.audience, "audience", "", "aud claim")
	f.DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	f.IntVar(&opts.count, "count", 1, "number of tokens to generate")
	f.StringVar(&opts.prefix, "prefix", "dev-user", "prefix for generated user ids")
	f.IntVar(&opts.start, "start", 1, "first index for generated user ids when count > 1")
	f.StringVar(&opts.output, "output", "", "file to write the tokens to as a JSON array")
	return cmd
}

func generateTokens(opts tokenOptions, args []string, now time.Time) ([]string, error) {
	switch {
	case opts.secret == "":
		return nil, errors.New("a signing secret is required")
	case opts.count < 1:
		return nil, errors.New("count must be at least 1")
	case opts.start < 1:
		return nil, errors.New("start index must be at least 1")
	case len(args) > 0 && opts.count > 1:
		return nil, errors.New("explicit user id cannot be combined with count > 1")
	case opts.ttl <= 0:
		return nil, errors.New("ttl must be positive")
	}

	tokens := make([]string, opts.count)
	for i := range tokens {
		userID := opts.prefix
		switch {
		case len(args) > 0:
			userID = args[0]
		case opts.count > 1:
			userID = fmt.Sprintf("%s-%d", opts.prefix, opts.start+i)
		}

		claims := jwt.MapClaims{
			"sub": userID,
			"iat": now.Unix(),
			"exp": now.Add(opts.ttl).Unix(),
		}
		if opts.name != "" {
			claims["name"] = opts.name
		}
		if opts.email != "" {
			claims["email"] = opts.email
		}
		if opts.audience != "" {
			claims["aud"] = opts.audience
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.secret))
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
