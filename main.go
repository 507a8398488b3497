package main

import "github.com/Bitlatte/shitdocs/cmd"

func main() {
	cmd.Execute()
}
