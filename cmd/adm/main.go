// Command adm is the administrative CLI for the tutoring backend.
package main

import (
	"fmt"
	"os"

	"tutorapp/cmd/adm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
