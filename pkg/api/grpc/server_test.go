package grpcapi

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/lunarc/pkg/store"
)

const sampleSrc = `
import produce(name x);
import consume(value x);
sub main() {
	df x;
	produce(x);
	consume(x);
}
`

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()
	s := store.New()
	srv := New(s)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

// invoke calls one of the hand-rolled unary methods directly through
// grpc.ClientConn.Invoke, in place of a generated client stub.
func invoke(t *testing.T, conn *grpc.ClientConn, method string, req map[string]any) *structpb.Struct {
	t.Helper()
	in, err := structpb.NewStruct(req)
	if err != nil {
		t.Fatalf("building request struct: %v", err)
	}
	out := new(structpb.Struct)
	fullMethod := "/" + serviceDesc.ServiceName + "/" + method
	if err := conn.Invoke(context.Background(), fullMethod, in, out); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	return out
}

func invokeErr(conn *grpc.ClientConn, method string, req map[string]any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	fullMethod := "/" + serviceDesc.ServiceName + "/" + method
	return conn.Invoke(context.Background(), fullMethod, in, out)
}

func TestCreateAndGetProgram(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	resp := invoke(t, conn, "CreateProgram", map[string]any{
		"name":   "p1",
		"source": sampleSrc,
	})
	if resp.GetFields()["name"].GetStringValue() != "p1" {
		t.Fatalf("unexpected name: %v", resp)
	}
	if resp.GetFields()["state"].GetStringValue() != string(store.ProgramActive) {
		t.Fatalf("expected ACTIVE state, got %v", resp)
	}

	got := invoke(t, conn, "GetProgram", map[string]any{"name": "p1"})
	if got.GetFields()["name"].GetStringValue() != "p1" {
		t.Fatalf("unexpected get response: %v", got)
	}
}

func TestListPrograms(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	for _, name := range []string{"p-a", "p-b"} {
		invoke(t, conn, "CreateProgram", map[string]any{"name": name, "source": sampleSrc})
	}

	resp := invoke(t, conn, "ListPrograms", map[string]any{})
	items := resp.GetFields()["programs"].GetListValue().GetValues()
	if len(items) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(items))
	}
}

func TestCreateProgramErrors(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	if err := invokeErr(conn, "CreateProgram", map[string]any{"name": "", "source": sampleSrc}); err == nil {
		t.Fatal("expected error for missing name")
	}

	invoke(t, conn, "CreateProgram", map[string]any{"name": "dup", "source": sampleSrc})
	if err := invokeErr(conn, "CreateProgram", map[string]any{"name": "dup", "source": sampleSrc}); err == nil {
		t.Fatal("expected error creating a duplicate program")
	}
}

func TestCreateAndGetExecution(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	invoke(t, conn, "CreateProgram", map[string]any{"name": "exec-test", "source": sampleSrc})

	exec := invoke(t, conn, "CreateExecution", map[string]any{
		"program": "exec-test",
		"mode":    string(store.ModeInterp),
	})
	name := exec.GetFields()["name"].GetStringValue()
	if name == "" {
		t.Fatal("expected execution name to be set")
	}

	got := invoke(t, conn, "GetExecution", map[string]any{"name": name})
	if got.GetFields()["state"].GetStringValue() != string(store.ExecutionRunning) {
		t.Fatalf("unexpected state: %v", got)
	}
}
