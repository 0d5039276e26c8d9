package main

import "github.com/MShoaei/HeadlineMiner/cmd"

func main() {
	cmd.Execute()
}
