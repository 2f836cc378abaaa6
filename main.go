package main

import "github.com/kozaktomas/photo-cleaner/cmd"

func main() {
	cmd.Execute()
}
