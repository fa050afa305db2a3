package main

import "github.com/alisonjenkins/tmux-sessionizer/cmd"

func main() {
	cmd.Execute()
}
