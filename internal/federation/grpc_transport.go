package federation

import (
	"context"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const (
	peerServiceName = "rendezvous.federation.Peer"
	peerStreamName  = "Stream"
	peerMethod      = "/" + peerServiceName + "/" + peerStreamName
)

var peerStreamDesc = grpc.StreamDesc{
	StreamName:    peerStreamName,
	ServerStreams: true,
	ClientStreams: true,
}

var peerServiceDesc = grpc.ServiceDesc{
	ServiceName: peerServiceName,
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    peerStreamName,
			Handler:       peerStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "rendezvous/federation/peer",
}

// Transport implements interfaces.FederationTransport over a real grpc
// bidi stream, using the json codec registered in codec.go instead of
// protobuf-generated types. It carries nothing but opaque frames — the
// federation manager owns every byte's structure.
type Transport struct {
	listenAddr string

	mu      sync.Mutex
	handler func(send chan<- []byte, recv <-chan []byte)
}

var _ iface.FederationTransport = (*Transport)(nil)

// NewTransport returns a transport that, when Serve is called, listens on
// listenAddr for inbound peer connections.
func NewTransport(listenAddr string) *Transport {
	return &Transport{listenAddr: listenAddr}
}

// Dial opens a bidirectional stream to peer and returns send/receive
// channels plumbed onto it.
func (t *Transport) Dial(ctx context.Context, peer types.InstanceRecord) (chan<- []byte, <-chan []byte, func(), error) {
	conn, err := grpc.NewClient(peer.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, nil, rverr.Wrap(rverr.CodeInternal, "dialing peer", err)
	}
	stream, err := conn.NewStream(ctx, &peerStreamDesc, peerMethod, grpc.CallContentSubtype(codecName))
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, rverr.Wrap(rverr.CodeInternal, "opening peer stream", err)
	}

	send := make(chan []byte, 16)
	recv := make(chan []byte, 16)
	done := make(chan struct{})

	go pumpSend(stream, send, done)
	go pumpRecv(stream, recv, done)

	var closeOnce sync.Once
	closeFn := func() {
		closeOnce.Do(func() {
			close(done)
			_ = stream.CloseSend()
			_ = conn.Close()
		})
	}
	return send, recv, closeFn, nil
}

// Serve blocks, accepting inbound peer streams until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, handler func(send chan<- []byte, recv <-chan []byte)) error {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()

	lis, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return rverr.Wrap(rverr.CodeInternal, "listening for peers", err)
	}

	srv := grpc.NewServer()
	srv.RegisterService(&peerServiceDesc, t)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		srv.GracefulStop()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func peerStreamHandler(srv any, stream grpc.ServerStream) error {
	t, ok := srv.(*Transport)
	if !ok {
		return status.Error(codes.Internal, "unexpected federation service implementation")
	}

	send := make(chan []byte, 16)
	recv := make(chan []byte, 16)
	done := make(chan struct{})
	defer close(done)

	go pumpSend(stream, send, done)

	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		go h(send, recv)
	}

	pumpRecv(stream, recv, done)
	return nil
}

// msgStream is the subset of grpc.ClientStream and grpc.ServerStream the
// pump loops need; both satisfy it.
type msgStream interface {
	SendMsg(m any) error
	RecvMsg(m any) error
}

func pumpSend(stream msgStream, send <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case b, ok := <-send:
			if !ok {
				return
			}
			if err := stream.SendMsg(&frame{Data: b}); err != nil {
				return
			}
		}
	}
}

func pumpRecv(stream msgStream, recv chan<- []byte, done <-chan struct{}) {
	defer close(recv)
	for {
		var f frame
		if err := stream.RecvMsg(&f); err != nil {
			return
		}
		select {
		case recv <- f.Data:
		case <-done:
			return
		}
	}
}
