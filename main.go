package main

import "github.com/silkmc/silk-installer/cmd"

func main() {
	cmd.Execute()
}
