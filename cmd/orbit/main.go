// # cmd/orbit/main.go
package main

import (
	"os"

	"orbit/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
