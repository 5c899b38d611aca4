package main

import (
	"github.com/latchkey-dev/latchkey/cmd"
)

func main() {
	cmd.Execute()
}
