//go:build !linux

package main

import (
	"os"
	"runtime"
)

func init() {
	// miniaudio and Fyne both want the first thread on macOS.
	runtime.LockOSThread()
}

func main() {
	// Check for -gui flag early (before flag.Parse in run())
	for _, arg := range os.Args[1:] {
		if arg == "-gui" {
			initGUI() // runs the shared startup path on the main thread
			return
		}
	}
	run()
}
