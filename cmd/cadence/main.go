package main

import "github.com/cadencelog/cadence/internal/cli"

func main() {
	cli.Execute()
}
