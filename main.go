package main

import "github.com/AvaProtocol/userop-digest/cmd"

func main() {
	cmd.Execute()
}
