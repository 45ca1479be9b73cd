// Package main provides the qurancms CLI: library maintenance commands and
// the admin dashboard server.
package main

import "os"

func main() {
	os.Exit(execute(newRootCmd(), os.Args[1:]))
}
