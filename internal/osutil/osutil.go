// Package osutil holds platform constants and small process helpers.
package osutil

import (
	"os"
	"runtime"
)

const (
	Windows = "windows"
	Darwin  = "darwin"
)

type exitCode int

const (
	ExitOK    exitCode = 0
	ExitError exitCode = 1
)

const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// Editor returns the user's preferred text editor.
func Editor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}

	if runtime.GOOS == Windows {
		return `C:\Windows\system32\notepad.exe`
	}

	return "nano"
}

// Exit terminates the process with code.
func Exit(code exitCode) {
	os.Exit(int(code))
}
