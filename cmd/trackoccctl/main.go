package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// Library logging is noise for an interactive command; -v restores it.
	log.SetOutput(io.Discard)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// loadDotenv applies .env overrides; a missing file is reported, not fatal.
func loadDotenv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
}
