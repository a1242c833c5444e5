package main

import "mr-lens/cmd"

func main() {
	cmd.Execute()
}
