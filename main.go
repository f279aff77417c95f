package main

import (
	"github.com/charmbracelet/log"

	"github.com/frgrisk/trust-prompt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
