package main

import "github.com/theopenlane/mcpscout/cmd"

func main() {
	cmd.Execute()
}
