package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/ravenhall/questboard/pkg/jwt"
)

// Mints a service token for an integration (the bot, a dashboard, operator
// tooling). Guild-scoped tokens only work against the guild they name; an
// empty guild produces an unscoped token.
func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to JWT_SECRET)")
	subject := flag.String("subject", "operator", "Caller identity carried in the token subject")
	guildID := flag.String("guild", "", "Guild to scope the token to (empty = unscoped)")
	role := flag.String("role", "service", "Token role: service or admin")
	issuer := flag.String("issuer", "questboard.ravenhall.gg", "Token issuer")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         *secret,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nSet JWT_SECRET or pass -secret.\n")
		os.Exit(1)
	}

	claims := jwt.Claims{
		GuildID: *guildID,
		Role:    *role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject: *subject,
		},
	}

	token, err := jwtService.Sign(claims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"subject":      *subject,
			"guild_id":     *guildID,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
	} else {
		expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
		scope := *guildID
		if scope == "" {
			scope = "(any guild)"
		}
		fmt.Println("Service Token Generated")
		fmt.Println("=======================")
		fmt.Printf("Subject:  %s\n", *subject)
		fmt.Printf("Guild:    %s\n", scope)
		fmt.Printf("Role:     %s\n", *role)
		fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
		fmt.Println()
		fmt.Println("Token:")
		fmt.Println(token)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Printf("  curl -H 'Authorization: Bearer <token>' -H 'X-Actor-ID: USERA1B2C3' http://localhost:8080/v1/guilds/%s/quests\n", *guildID)
	}
}
