package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	Execute()
}
