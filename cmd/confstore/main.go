// Copyright © 2018 One Concern

package main

import "github.com/oneconcern/confstore/cmd/confstore/cmd"

func main() {
	cmd.Execute()
}
