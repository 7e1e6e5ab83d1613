package main

import (
	"log"

	"github.com/avencourt/listflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
