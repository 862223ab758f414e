package main

import "go-invoice-webapp/cmd"

func main() {
	cmd.Execute()
}
