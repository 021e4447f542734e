package main

import "github.com/dukerupert/giftledger/internal/cli"

func main() {
	cli.Execute()
}
