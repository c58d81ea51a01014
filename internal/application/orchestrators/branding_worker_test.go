package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestStartPendingBrandingWorker tests deferred branding is pushed with the service token.
func TestStartPendingBrandingWorker(t *testing.T) {
	be, store := brandingFixture()
	be.failUpdateApp = errors.New("backend unavailable")
	if _, err := ExecuteDeriveBranding(context.Background(), DeriveBrandingInput{AppID: 3, PrimaryHex: "#15803d"},
		DeriveBrandingDeps{Store: store, Backend: be, Now: fixedNow}); err != nil {
		t.Fatal(err)
	}
	be.failUpdateApp = nil
	be.pushTokens = nil

	stop := make(chan struct{})
	done := StartPendingBrandingWorker(PushPendingBrandingDeps{Store: store, Backend: be, Now: fixedNow},
		"service-token", 10*time.Millisecond, stop)

	deadline := time.Now().Add(2 * time.Second)
	for be.pushedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(stop)
	<-done

	if be.pushedCount() == 0 {
		t.Fatal("expected the pending preference to be pushed")
	}
	if pending, _ := store.ListUnpushed(context.Background()); len(pending) != 0 {
		t.Errorf("expected nothing pending, got %d", len(pending))
	}
	if be.pushTokens[0] != "service-token" {
		t.Errorf("push token = %q", be.pushTokens[0])
	}
}

// TestStartPendingBrandingWorker_Stops tests the worker exits on stop without a tick.
func TestStartPendingBrandingWorker_Stops(t *testing.T) {
	be, store := brandingFixture()
	stop := make(chan struct{})
	done := StartPendingBrandingWorker(PushPendingBrandingDeps{Store: store, Backend: be, Now: fixedNow}, "t", time.Hour, stop)
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
