package main

import "github.com/ridoystarlord/schemasync/cmd"

func main() {
	cmd.Execute()
}
