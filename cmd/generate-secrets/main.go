package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/smarttransit/route-planner/internal/utils"
	"github.com/smarttransit/route-planner/pkg/jwt"
)

func main() {
	var (
		subject string
		issuer  string
		days    int
	)
	flag.StringVar(&subject, "subject", "operator", "subject recorded in the admin token")
	flag.StringVar(&issuer, "issuer", "route-planner", "issuer, must match JWT_ISSUER")
	flag.IntVar(&days, "days", 30, "admin token lifetime in days")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for SmartTransit")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	expiry := time.Duration(days) * 24 * time.Hour
	service := jwt.NewService(secret, issuer, expiry)
	token, err := service.GenerateToken(subject, []string{"admin"})
	if err != nil {
		log.Fatalf("Failed to generate admin token: %v", err)
	}

	// Same check the server applies to admin requests
	claims, err := service.ValidateToken(token)
	if err != nil {
		log.Fatalf("Generated token does not validate: %v", err)
	}

	fmt.Println("Add this to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Printf("JWT_ISSUER=%s\n", issuer)
	fmt.Println()
	fmt.Printf("Admin token for %q (expires %s), use as Authorization: Bearer <token>\n",
		claims.Subject, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	fmt.Println(token)
	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
