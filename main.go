package main

import "github.com/chrisdamba/distsim/cmd"

func main() {
	cmd.Execute()
}
