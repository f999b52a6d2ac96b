package main

import "github.com/kozaktomas/facefit/cmd"

func main() {
	cmd.Execute()
}
