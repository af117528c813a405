package main

import "github.com/oshokin/emergency-beacon/cmd/beacon-server/cmd"

func main() {
	cmd.Execute()
}
