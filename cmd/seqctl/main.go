package main

import "github.com/vietddude/seqgate/internal/cli"

func main() {
	cli.Execute()
}
