package main

import "notedeck/cmd/notedeck/cmd"

func main() {
	cmd.Execute()
}
