package logsvc

import "os"

var (
	osExit = os.Exit
	exit   = osExit // mockable
)
