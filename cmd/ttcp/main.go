package main

import "github.com/julienstroheker/ttcp/cli/cmd"

func main() {
	cmd.Execute()
}
