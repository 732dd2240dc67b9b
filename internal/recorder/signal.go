package recorder

import (
	"os"
	"os/signal"
	"syscall"
)

// InstallInterruptFlush registers a handler so a user forcibly terminating
// the process does not lose the event history leading up to the interrupt:
// the queue is synchronously flushed before exit proceeds. After the flush
// the signal is re-raised with the default disposition so the process still
// terminates with the expected status.
//
// The returned function uninstalls the handler.
func (r *Recorder) InstallInterruptFlush() (uninstall func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		r.Shutdown()
		signal.Stop(ch)
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			p.Signal(sig)
		}
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
