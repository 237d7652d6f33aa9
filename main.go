// Package main is the entry point for the fbmetrics CLI tool, which reports
// key passes, expected goals and pass/shot maps from football event data.
package main

import "github.com/pable/go-football-metrics/cmd"

func main() {
	cmd.Execute()
}
