// Package main is entrypoint for the application
package main

import (
	"groupcall/cmd"
)

func main() {
	cmd.Run()
}
