package main

import (
	"context"
	"log"
	"os"

	"github.com/castlebar/fieldops/internal/server"
)

func main() {
	if err := server.Run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
