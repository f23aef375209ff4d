package remote

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/oggyb/motorplace/internal/likes"
)

// online maps a channel state to the offline queue's view; ok is false for
// states that say nothing yet.
func online(s connectivity.State) (up, ok bool) {
	switch s {
	case connectivity.Ready, connectivity.Idle:
		return true, true
	case connectivity.TransientFailure, connectivity.Shutdown:
		return false, true
	}
	return false, false
}

// WatchConnectivity mirrors the channel state of conn into sig until ctx is
// done or the connection shuts down.
func WatchConnectivity(ctx context.Context, conn *grpc.ClientConn, sig *likes.ConnectivitySignal) {
	for {
		state := conn.GetState()
		if up, ok := online(state); ok {
			sig.Set(up)
		}
		if state == connectivity.Shutdown {
			return
		}
		if !conn.WaitForStateChange(ctx, state) {
			return
		}
	}
}

// Probe connects and reports whether the channel became ready within timeout.
func Probe(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return true
		case connectivity.Shutdown:
			return false
		}
		if !conn.WaitForStateChange(ctx, state) {
			return false
		}
	}
}
