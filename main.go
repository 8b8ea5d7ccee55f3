package main

import "ragtutor/cmd"

func main() {
	cmd.Execute()
}
