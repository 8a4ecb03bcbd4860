package main

import "github.com/mailtools/mboxfsck/cmd"

func main() {
	cmd.Execute()
}
