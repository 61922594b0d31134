package utils

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// SafeAsync runs f in a goroutine and recovers panics so a failing
// background job can not take the whole service down.
func SafeAsync(f func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("Async func failed with panic: %v", err)
				log.Tracef("Stacktrace: %v", string(debug.Stack()))
			}
		}()
		f()
	}()
}
