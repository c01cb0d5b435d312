package main

import "github.com/magnus188/trimix-analysator/cmd"

func main() {
	cmd.Execute()
}
