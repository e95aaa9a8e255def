package main

import "github.com/emiliopalmerini/mobserve/internal/cli"

func main() {
	cli.Execute()
}
