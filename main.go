package main

import "github.com/Tiliavir/litt/cmd"

func main() {
	cmd.Execute()
}
