package main

import "github.com/Tiliavir/medrem/cmd"

func main() {
	cmd.Execute()
}
