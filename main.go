package main

import (
	"github.com/foomo/jsonhtml/cmd"
)

func main() {
	cmd.Execute()
}
