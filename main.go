package main

import "github.com/fullcount-labs/fullcount/cmd"

func main() {
	cmd.Execute()
}
