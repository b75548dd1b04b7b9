package di

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/internal/wire"
	"github.com/goliatone/go-typeprovider-cache/pkg/testsupport"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/goliatone/go-typeprovider-cache/proxy"
)

// servedSession serves fake over an in-memory pipe and attaches a session
// to the other end, the way a real host process is reached over its stdio.
func servedSession(t *testing.T, container *Container, fake *testsupport.FakeHost) (*Session, context.CancelFunc) {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	srv := wire.NewServer(nil)
	protocol.Serve(srv, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, serverSide)
	}()

	session, err := container.Attach(clientSide, 1)
	if err != nil {
		cancel()
		t.Fatalf("Attach() failed: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
		<-done
	})
	return session, cancel
}

func testContainer(t *testing.T) *Container {
	t.Helper()
	container, err := NewContainer(testStoreConfig(), testConnectionConfig(), nil)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	return container
}

func TestEndToEndSessionFlow(t *testing.T) {
	fake := testsupport.LoadHostFixture(t, testsupport.FixturePath("host.json"))
	session, _ := servedSession(t, testContainer(t), fake)
	pctx := session.Context
	ctx := context.Background()

	// Step 1: resolve the root type; only its record is fetched
	root, err := pctx.Type(ctx, 10)
	if err != nil {
		t.Fatalf("Type() failed: %v", err)
	}
	if root.FullName() != "Sample.Root" || !root.IsErased() || !root.IsClass() {
		t.Fatalf("unexpected root %q flags %v", root.FullName(), root.Flags())
	}
	if calls := fake.TotalCalls(); calls != 1 {
		t.Errorf("Expected 1 remote call after Type(), got %d", calls)
	}

	// Step 2: walk the structure
	nested, err := root.GetNestedTypes(ctx)
	if err != nil {
		t.Fatalf("GetNestedTypes() failed: %v", err)
	}
	if len(nested) != 1 || nested[0].Name() != "Nested" {
		t.Fatalf("Expected [Nested], got %v", nested)
	}

	methods, err := root.GetMethods(ctx)
	if err != nil {
		t.Fatalf("GetMethods() failed: %v", err)
	}
	if len(methods) != 1 || methods[0].Name() != "Run" {
		t.Fatalf("Expected [Run], got %v", methods)
	}
	params, err := methods[0].GetParameters(ctx)
	if err != nil {
		t.Fatalf("GetParameters() failed: %v", err)
	}
	if len(params) != 1 || params[0].Name() != "input" {
		t.Fatalf("Expected [input], got %v", params)
	}

	static, err := root.GetStaticParameters(ctx)
	if err != nil {
		t.Fatalf("GetStaticParameters() failed: %v", err)
	}
	if len(static) != 1 || static[0].Name() != "Count" {
		t.Fatalf("Expected [Count], got %v", static)
	}

	asm, err := root.Assembly(ctx)
	if err != nil {
		t.Fatalf("Assembly() failed: %v", err)
	}
	if asm.Name() != "Provided" {
		t.Errorf("Expected assembly Provided, got %q", asm.Name())
	}

	attrs, err := root.CustomAttributes(ctx)
	if err != nil {
		t.Fatalf("CustomAttributes() failed: %v", err)
	}
	args, ok, err := attrs.ConstructorArgs("System.ObsoleteAttribute")
	if err != nil || !ok || len(args.Positional) != 1 || args.Positional[0] != "old" {
		t.Errorf("Expected Obsolete(\"old\"), got %+v ok=%v err=%v", args, ok, err)
	}

	// Step 3: erased application goes through the type cache
	applied, err := root.ApplyStaticArguments(ctx, []string{"Sample", "Root5"}, []any{int32(5)})
	if err != nil {
		t.Fatalf("ApplyStaticArguments() failed: %v", err)
	}
	again, err := root.ApplyStaticArguments(ctx, []string{"Sample", "Root5"}, []any{int32(5)})
	if err != nil {
		t.Fatalf("ApplyStaticArguments() failed: %v", err)
	}
	if applied != again {
		t.Error("Equal erased applications should yield the same proxy")
	}

	// Step 4: array types are keyed locally
	arr, err := root.MakeArrayType(ctx, 2)
	if err != nil {
		t.Fatalf("MakeArrayType() failed: %v", err)
	}
	arr2, err := root.MakeArrayType(ctx, 2)
	if err != nil {
		t.Fatalf("MakeArrayType() failed: %v", err)
	}
	if arr != arr2 {
		t.Error("MakeArrayType(2) should yield the same proxy twice")
	}
	if calls := fake.Calls(protocol.MethodMakeArrayType); calls != 1 {
		t.Errorf("Expected 1 MakeArrayType call, got %d", calls)
	}

	// Step 5: dump everything but the connection header
	dump := pctx.Dump()
	header, body, found := strings.Cut(dump, "\n\n")
	if !found {
		t.Fatalf("dump has no sections: %q", dump)
	}
	if !strings.HasPrefix(header, "Connection "+session.Connection.ID().String()) {
		t.Errorf("unexpected dump header %q", header)
	}
	testsupport.CompareWithGolden(t, testsupport.GoldenPath("session_dump.golden"), []byte(body+"\n"))
}

func TestConcurrentSessionAccess(t *testing.T) {
	fake := testsupport.NewFakeHost()
	const numTypes = 50
	for i := 1; i <= numTypes; i++ {
		fake.AddType(protocol.RdType{
			ID:       protocol.EntityID(i),
			Name:     fmt.Sprintf("T%d", i),
			FullName: fmt.Sprintf("Sample.T%d", i),
			Flags:    protocol.TypeIsClass | protocol.TypeIsPublic,
		})
	}
	fake.Delay(protocol.MethodGetTypes, 2*time.Millisecond)
	session, _ := servedSession(t, testContainer(t), fake)
	ctx := context.Background()

	const numGoroutines = 20
	results := make([][]*proxy.Type, numGoroutines)
	errs := make(chan error, numGoroutines)

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			results[worker] = make([]*proxy.Type, numTypes)
			for i := 1; i <= numTypes; i++ {
				tp, err := session.Context.Type(ctx, protocol.EntityID(i))
				if err != nil {
					errs <- fmt.Errorf("worker %d type %d: %w", worker, i, err)
					return
				}
				results[worker][i-1] = tp
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	// Every worker must observe the same proxy for the same id.
	for g := 1; g < numGoroutines; g++ {
		for i := range results[g] {
			if results[g][i] != results[0][i] {
				t.Fatalf("worker %d saw a different proxy for type %d", g, i+1)
			}
		}
	}
	if n := session.Context.Types().Len(); n != numTypes {
		t.Errorf("Expected %d cached types, got %d", numTypes, n)
	}
}

func TestRemoteErrorPropagation(t *testing.T) {
	fake := testsupport.LoadHostFixture(t, testsupport.FixturePath("host.json"))
	session, _ := servedSession(t, testContainer(t), fake)
	ctx := context.Background()

	root, err := session.Context.Type(ctx, 10)
	if err != nil {
		t.Fatalf("Type() failed: %v", err)
	}

	fake.Fail(protocol.MethodGetContent, errors.New("provider threw"), 1)
	_, err = root.GetMethods(ctx)
	if !errors.Is(err, connection.ErrRemoteUnavailable) {
		t.Fatalf("Expected ErrRemoteUnavailable, got %v", err)
	}
	var remote *wire.RemoteError
	if !errors.As(err, &remote) {
		t.Errorf("Expected the remote error to be preserved, got %v", err)
	}
	// Failures the host reported itself are not retried.
	if calls := fake.Calls(protocol.MethodGetContent); calls != 1 {
		t.Errorf("Expected 1 GetContent call, got %d", calls)
	}

	// Nothing was cached, so the next access tries again.
	methods, err := root.GetMethods(ctx)
	if err != nil {
		t.Fatalf("GetMethods() after recovery failed: %v", err)
	}
	if len(methods) != 1 {
		t.Errorf("Expected 1 method, got %d", len(methods))
	}
}

func TestTransportLossTearsDownSession(t *testing.T) {
	fake := testsupport.LoadHostFixture(t, testsupport.FixturePath("host.json"))
	session, stopServer := servedSession(t, testContainer(t), fake)
	ctx := context.Background()

	root, err := session.Context.Type(ctx, 10)
	if err != nil {
		t.Fatalf("Type() failed: %v", err)
	}

	stopServer()

	deadline := time.Now().Add(2 * time.Second)
	for session.Connection.Alive() {
		if time.Now().After(deadline) {
			t.Fatal("session still alive after the transport ended")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := root.GetMethods(ctx); !errors.Is(err, connection.ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
	if root.Name() != "Root" {
		t.Errorf("Record data should stay readable, got %q", root.Name())
	}
}
