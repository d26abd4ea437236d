package main

import cmd "github.com/rohmanhakim/canonurl/internal/cli"

func main() {
	cmd.Execute()
}
