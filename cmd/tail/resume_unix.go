//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func notifyResume(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGCONT)
}
