package main

import "github.com/dassagnik123/signdoc-easy-upload/cli"

func main() {
	cli.Run()
}
