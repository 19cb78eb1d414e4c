// Command token mints a signed JWT for local development and testing.
//
//	JWT_SECRET=... go run ./cmd/token -user u1 -company c1
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pmchat/internal/auth"
	"pmchat/internal/models"
)

func main() {
	userID := flag.String("user", "", "user id to embed in the token")
	companyID := flag.String("company", "", "company id to embed in the token")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" || *companyID == "" {
		log.Fatal("both -user and -company are required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	token, err := auth.NewVerifier(secret).Sign(models.Principal{
		UserID:    *userID,
		CompanyID: *companyID,
	}, *expiry)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
}
