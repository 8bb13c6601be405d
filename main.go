/*
Package main
File: main.go
Description: Thin entry point. All wiring lives in the cmd package.
*/

package main

import (
	"log"

	"github.com/everforgeworks/tradewinds-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
