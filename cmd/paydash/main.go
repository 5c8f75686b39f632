package main

import "github.com/vietddude/paydash/internal/cli"

func main() {
	cli.Execute()
}
