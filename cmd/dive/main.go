package main

import (
	"github.com/archivedive/dive/cmd"
)

func main() {
	cmd.Execute()
}
