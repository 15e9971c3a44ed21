// Command tokengen prints a bearer token for the configured owner.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"habitkeeper/config"
	"habitkeeper/pkg/util"
)

func main() {
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(config.GetEnv("CONFIG_DIR", "config"), config.GetConfigEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is not set; auth is disabled")
		os.Exit(1)
	}

	token, err := util.GenerateJWT(cfg.JWT.Owner, cfg.JWT.Secret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
