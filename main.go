package main

import "github.com/faceguard/faceguard/cmd"

func main() {
	cmd.Execute()
}
