package main

import "dataset-streamer/cmd"

func main() {
	cmd.Execute()
}
