package main

import "fluxdec/cmd"

func main() {
	cmd.Execute()
}
