package main

import "github.com/zinc-sig/robotharness/cmd"

func main() {
	cmd.Execute()
}
