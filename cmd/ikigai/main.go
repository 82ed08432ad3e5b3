// Command ikigai is the terminal-resident runtime entrypoint.
package main

import "github.com/nextlevelbuilder/ikigai/cmd"

func main() {
	cmd.Execute()
}
