package main

import (
	"context"

	"menuparity/cmd/menuparity/commands"
	"menuparity/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext(context.Background()))
}
