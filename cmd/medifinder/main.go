package main

import "medifinder/m/internal/cli"

func main() {
	cli.Execute()
}
