package main

import "cfo-copilot/internal/cli"

func main() {
	cli.Execute()
}
