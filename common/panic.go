package common

import (
	"fmt"
	"os"
	"runtime/debug"
)

// PanicHandler must be deferred at the top of main.
func PanicHandler() {
	if r := recover(); r != nil {
		fmt.Printf("Panic caught in tekagg: %v\n", r)
		debug.PrintStack()
		os.Exit(1)
	}
}
