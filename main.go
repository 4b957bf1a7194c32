package main

import "github.com/maxvaer/intervention/cmd"

func main() {
	cmd.Execute()
}
