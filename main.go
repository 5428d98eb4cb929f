package main

import "github.com/codewalk-dev/codewalk/cmd"

func main() {
	cmd.Execute()
}
