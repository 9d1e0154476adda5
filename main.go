package main

import "github.com/lehmann314159/vocabtyper/cmd"

func main() {
	cmd.Execute()
}
