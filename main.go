// Package main is the entry point for the cuprating CLI tool, which loads
// tournament result feeds and computes the series rating table.
package main

import "github.com/pable/go-cup-rating/cmd"

func main() {
	cmd.Execute()
}
