package main

import "github.com/stuttgart-things/beam/cmd"

func main() {
	cmd.Execute()
}
