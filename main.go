package main

import "github.com/polyflare/parlay-resolver/cmd"

func main() {
	cmd.Execute()
}
