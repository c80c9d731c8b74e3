package main

import "github.com/audiolooplab/echonote/cmd"

func main() {
	cmd.Execute()
}
