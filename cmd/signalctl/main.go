package main

import "aviatorpro/internal/cmd"

func main() {
	cmd.Execute()
}
