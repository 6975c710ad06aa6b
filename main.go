package main

import (
	"github.com/Droze-svj/click-platform-sub013/cmd"
)

func main() {
	cmd.Execute()
}
