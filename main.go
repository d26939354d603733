package main

import "github.com/Fomalhautarc/kucun/cmd"

func main() {
	cmd.Execute()
}
