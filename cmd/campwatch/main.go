package main

import (
	"campwatch/cmd/campwatch/commands"
	"campwatch/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
