package main

import "github.com/nfrund/roomcast/cmd/roomcast/cmd"

func main() {
	cmd.Execute()
}
