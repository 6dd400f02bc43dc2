package main

import "github.com/pgdock/pgdock/cmd"

func main() {
	cmd.Execute()
}
