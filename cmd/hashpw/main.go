package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load .env from project root
	_ = godotenv.Load("../.env")

	password := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		fmt.Println("Usage: go run hashpw.go <password> (or set ADMIN_PASSWORD)")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("bcrypt hash:\n%s\n", hash)
}
