package signalman

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"sync"
	"syscall"

	"github.com/alpacahq/gocaptable/utils/log"
)

type SignalHandler func() error

var (
	handlers = map[string]SignalHandler{}
	mu       sync.RWMutex
	Done     = make(chan interface{})
)

func Wait() {
	<-Done
}

func RegisterFunc(name string, f SignalHandler) {
	mu.Lock()
	defer mu.Unlock()
	log.Debug("register graceful termination", "name", name)
	handlers[name] = f
}

func Start() {
	sigChannel := make(chan os.Signal, 1)

	signal.Notify(sigChannel, syscall.SIGUSR1, syscall.SIGTERM, os.Interrupt)

	go func() {
		for {
			sig := <-sigChannel
			switch sig {
			case syscall.SIGTERM, os.Interrupt:
				mu.RLock()
				for name, handler := range handlers {
					if err := handler(); err != nil {
						log.Error("failed to graceful terminate", "error", err, "handler", name)
					} else {
						log.Debug("gracefully terminating", "handler", name)
					}
				}
				mu.RUnlock()
				log.Info("gracefully terminated")
				close(Done)
				return
			case syscall.SIGUSR1:
				fmt.Println("dumping stack traces due to SIGUSR1 request")
				pprof.Lookup("goroutine").WriteTo(os.Stdout, 1)
			}
		}
	}()
}
