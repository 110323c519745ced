package shutdown

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGTERM, syscall.SIGINT)

	return gracefulShutdown
}

// ListenForShutdown blocks until a termination signal arrives or stop is closed.
// On a signal it runs signalHandler and waits up to timeToWait for finished to be closed.
// It reports whether a signal was received.
func ListenForShutdown(
	signalChan chan os.Signal,
	stop <-chan struct{},
	finished <-chan struct{},
	signalHandler func(),
	timeToWait time.Duration,
	l *zap.Logger,
) bool {
	select {
	case sig := <-signalChan:
		l.Sugar().Infow("Caught signal", zap.String("signal", sig.String()))
	case <-stop:
		return false
	}

	signalHandler()

	select {
	case <-finished:
		l.Sugar().Infow("Workers stopped")
	case <-time.After(timeToWait):
		l.Sugar().Warnw("Timed out waiting for workers to stop", zap.Duration("timeToWait", timeToWait))
	}

	l.Sugar().Infow("Exiting")
	return true
}
