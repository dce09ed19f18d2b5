package main

import "github.com/oshokin/thermal-monitor/cmd/thermal-monitor/cmd"

func main() {
	cmd.Execute()
}
