package main

import (
	"log"

	"github.com/finanfun/nocache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
