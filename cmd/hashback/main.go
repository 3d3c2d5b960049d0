// Package main is the entry point for hashback.
package main

import (
	"github.com/hashback/hashback/internal/cli"
)

func main() {
	cli.Execute()
}
