package main

import "github.com/emrgen/recall/cmd"

func main() {
	cmd.Execute()
}
