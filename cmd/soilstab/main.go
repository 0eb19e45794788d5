package main

import "github.com/emiliopalmerini/soilstab/internal/cli"

func main() {
	cli.Execute()
}
