package main

import "secureprint/cmd/client/cmd"

func main() {
	cmd.Execute()
}
