package breakpoint

import (
	"testing"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
)

// grpc.NewClient resolves lazily (no eager dial), so DialGRPCSink against an
// address nothing listens on still succeeds as long as the embedded
// breakpoint.proto schema parses and the service/method are found.
func TestDialGRPCSinkParsesEmbeddedSchema(t *testing.T) {
	sink, err := DialGRPCSink("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	if sink.method == nil || sink.evType == nil {
		t.Fatal("expected method and input type to be resolved from the embedded schema")
	}
}

func TestOnBreakpointNilSinkIsNoOp(t *testing.T) {
	var sink *GRPCSink
	sink.OnBreakpoint(nil, nil, scripterr.Location{}) // must not panic
}

func TestOnBreakpointEnqueuesMessage(t *testing.T) {
	sink, err := DialGRPCSink("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	frame := scriptframe.New()
	defer frame.Pop()
	se := scripterr.New("boom", scripterr.Location{Line: 1, Col: 1})
	sink.OnBreakpoint(frame, se, scripterr.Location{File: "x.conf", Line: 1, Col: 1})

	select {
	case msg := <-sink.events:
		hasErr, _ := msg.TryGetFieldByName("has_error")
		if hasErr != true {
			t.Errorf("expected has_error=true on the enqueued message")
		}
	default:
		t.Fatal("expected a message to be enqueued in the delivery buffer")
	}
}

func TestOnBreakpointDropsWhenBufferFull(t *testing.T) {
	sink, err := DialGRPCSink("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	var dropErr error
	sink.onDeliveryError = func(e error) { dropErr = e }

	for i := 0; i < cap(sink.events)+1; i++ {
		sink.OnBreakpoint(nil, nil, scripterr.Location{})
	}
	if dropErr == nil {
		t.Error("expected onDeliveryError to be invoked once the buffer filled up")
	}
}

func TestCloseIsSafeOnNilSink(t *testing.T) {
	var sink *GRPCSink
	if err := sink.Close(); err != nil {
		t.Errorf("Close on nil sink should be a no-op, got %v", err)
	}
}
