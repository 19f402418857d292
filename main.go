// Package main points to the M2BP command line tool in cmd/m2bp.
package main

import "fmt"

func main() {
	fmt.Println("M2BP lives in cmd/m2bp. Run 'go run ./cmd/m2bp --help'.")
}
