package main

import "viewengine/internal/cli"

func main() {
	cli.Execute()
}
