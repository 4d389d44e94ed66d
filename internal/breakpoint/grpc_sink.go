package breakpoint

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
)

// breakpointEventProto is the wire schema for a single broadcast, parsed by
// each DialGRPCSink call rather than compiled from a generated .pb.go — the same
// technique the engine this package is modeled on uses in its dynamic gRPC
// builtins (parse a .proto with protoparse, build messages with
// dynamic.NewMessage) so the remote debugger protocol needs no codegen
// step of its own.
const breakpointEventProto = `
syntax = "proto3";
package scriptengine.breakpoint.v1;

message BreakpointEvent {
  string location = 1;
  int32 frame_depth = 2;
  string self_inspect = 3;
  bool has_error = 4;
  string error_message = 5;
}

message Ack {}

service BreakpointSink {
  rpc Report(BreakpointEvent) returns (Ack);
}
`

// GRPCSink streams breakpoint broadcasts to a remote debugger front-end
// over a unary RPC. It is one more Subscriber among many — the in-process
// broadcast in bus.go always runs first and synchronously; this sink is
// best-effort and must never be able to stall or fail evaluation, so
// delivery happens on a background goroutine through a bounded buffer.
type GRPCSink struct {
	conn   *grpc.ClientConn
	method *desc.MethodDescriptor
	evType *desc.MessageDescriptor

	events chan *dynamic.Message
	done   chan struct{}

	onDeliveryError func(error)
}

// DialGRPCSink connects to target (insecure, matching the teacher's own
// grpcConnect builtin default for simplicity) and returns a ready-to-use
// sink. The returned sink's Close stops its background delivery goroutine
// and closes the connection.
func DialGRPCSink(target string, onDeliveryError func(error)) (*GRPCSink, error) {
	fds, err := (&protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"breakpoint.proto": breakpointEventProto,
		}),
	}).ParseFiles("breakpoint.proto")
	if err != nil {
		return nil, fmt.Errorf("breakpoint: parsing remote sink schema: %w", err)
	}
	fd := fds[0]
	svc := fd.FindService("scriptengine.breakpoint.v1.BreakpointSink")
	if svc == nil {
		return nil, fmt.Errorf("breakpoint: schema missing BreakpointSink service")
	}
	method := svc.FindMethodByName("Report")
	if method == nil {
		return nil, fmt.Errorf("breakpoint: schema missing Report method")
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("breakpoint: dialing remote sink %q: %w", target, err)
	}

	s := &GRPCSink{
		conn:            conn,
		method:          method,
		evType:          method.GetInputType(),
		events:          make(chan *dynamic.Message, 256),
		done:            make(chan struct{}),
		onDeliveryError: onDeliveryError,
	}
	go s.drain()
	return s, nil
}

func (s *GRPCSink) drain() {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			resp := dynamic.NewMessage(s.method.GetOutputType())
			methodPath := "/" + s.method.GetService().GetFullyQualifiedName() + "/" + s.method.GetName()
			err := s.conn.Invoke(ctx, methodPath, ev, resp)
			cancel()
			if err != nil && s.onDeliveryError != nil {
				s.onDeliveryError(err)
			}
		case <-s.done:
			return
		}
	}
}

// OnBreakpoint satisfies Subscriber. It never blocks: a full buffer drops
// the event (delivery is best-effort), and delivery errors are reported
// asynchronously through onDeliveryError rather than returned here.
func (s *GRPCSink) OnBreakpoint(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location) {
	if s == nil {
		return
	}
	msg := dynamic.NewMessage(s.evType)
	msg.SetFieldByName("location", loc.String())
	if frame != nil {
		msg.SetFieldByName("frame_depth", int32(frame.Depth()))
		msg.SetFieldByName("self_inspect", frame.Self().Inspect())
	}
	if err != nil {
		msg.SetFieldByName("has_error", true)
		msg.SetFieldByName("error_message", err.Error())
	}

	select {
	case s.events <- msg:
	default:
		if s.onDeliveryError != nil {
			s.onDeliveryError(fmt.Errorf("breakpoint: remote sink buffer full, dropping event at %s", loc))
		}
	}
}

// Close stops delivery and closes the underlying connection.
func (s *GRPCSink) Close() error {
	if s == nil {
		return nil
	}
	close(s.done)
	return s.conn.Close()
}

var _ io.Closer = (*GRPCSink)(nil)
