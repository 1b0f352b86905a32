// Command tutormesh runs the tutor as an HTTP service, answers single
// questions from the terminal and builds the retrieval index.
package main

import (
	"os"
)

func main() {
	if err := newRootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}
