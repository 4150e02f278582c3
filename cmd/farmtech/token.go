package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/farmtech/irrigation/internal/auth"
	"github.com/farmtech/irrigation/internal/config"
	"github.com/spf13/viper"
)

// tokenService builds the operator token service from auth.*. A missing
// secret returns nil: the API then runs without the write guard.
func tokenService(v *viper.Viper) (*auth.TokenService, error) {
	secret := v.GetString("auth.jwt_secret")
	if secret == "" {
		return nil, nil
	}
	return auth.NewTokenService([]byte(secret), v.GetDuration("auth.token_ttl"))
}

func runToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	operator := fs.String("operator", "", "operator name recorded in the token (required)")
	ttl := fs.Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *operator == "" {
		fmt.Fprintln(os.Stderr, "token: -operator is required")
		return 2
	}

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if *ttl > 0 {
		v.Set("auth.token_ttl", *ttl)
	}

	tokens, err := tokenService(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 1
	}
	if tokens == nil {
		fmt.Fprintln(os.Stderr, "token: auth.jwt_secret is not set; run \"farmtech setup\" first")
		return 1
	}

	tok, expires, err := tokens.Issue(*operator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 1
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
	return 0
}
