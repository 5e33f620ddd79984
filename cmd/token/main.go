// Command token prints a signed access token for local testing:
//
//	go run ./cmd/token -player u1 -email u1@example.com
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iamasit07/soloq/internal/config"
	"github.com/iamasit07/soloq/pkg/auth"
	"github.com/iamasit07/soloq/pkg/uid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	defaultSecret := os.Getenv("SOLOQ_JWT_SECRET")
	if defaultSecret == "" {
		defaultSecret = config.New().JWTSecret
	}

	var (
		playerID = flag.String("player", "", "Player id to put in the subject (default: a random uuid)")
		email    = flag.String("email", "", "Optional email claim")
		secret   = flag.String("secret", defaultSecret, "HS256 signing secret (default: SOLOQ_JWT_SECRET)")
		ttl      = flag.Duration("ttl", auth.DefaultTokenTTL, "Token lifetime")
	)
	flag.Parse()

	if *playerID == "" {
		*playerID = uid.New()
	}

	token, err := auth.NewVerifier(*secret, *ttl).GenerateAccessToken(*playerID, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
