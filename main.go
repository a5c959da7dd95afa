package main

import "github.com/Digital-Shane/vod2strm/internal/cmd"

func main() {
	cmd.Execute()
}
