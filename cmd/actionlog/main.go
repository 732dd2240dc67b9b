package main

import "github.com/actionlog-project/actionlog/internal/cli"

func main() {
	cli.Execute()
}
