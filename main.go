package main

import "licence-sync/cmd"

func main() {
	cmd.Execute()
}
