package main

import "github.com/MeKo-Tech/layocr/cmd/layocr/cmd"

func main() {
	cmd.Execute()
}
