package main

import "github.com/posa/jerseyapp/internal/cli"

func main() {
	cli.Execute()
}
