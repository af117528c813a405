package main

import "github.com/oshokin/emergency-beacon/cmd/beacon-client/cmd"

func main() {
	cmd.Execute()
}
