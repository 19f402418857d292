// Package main provides the m2bp command line tool, which evaluates branch
// direction predictors over branch traces.
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
