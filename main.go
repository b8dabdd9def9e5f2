package main

import "github.com/NikiShestakov/tg/cmd"

func main() {
	cmd.Execute()
}
