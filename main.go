package main

import "dbmirror/cmd"

func main() {
	cmd.Execute()
}
