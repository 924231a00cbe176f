package main

import "github.com/rxmeter/collector/internal/cli"

func main() {
	cli.Execute()
}
