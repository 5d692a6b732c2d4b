package main

import "github.com/bz888/codeagent/cmd"

func main() {
	cmd.Execute()
}
