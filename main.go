package main

import "github.com/pdillis/earthview/cmd"

func main() {
	cmd.Execute()
}
