package main

import "github.com/sodachi/mangetsu/cmd"

func main() {
	cmd.Execute()
}
