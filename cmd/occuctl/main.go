package main

import "anzsco-lookup/cmd/occuctl/cmd"

func main() {
	cmd.Execute()
}
