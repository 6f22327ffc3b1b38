package main

import "github.com/alexiusacademia/goshear/cmd"

func main() {
	cmd.Execute()
}
