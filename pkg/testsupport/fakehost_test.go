package testsupport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-typeprovider-cache/protocol"
)

func newSampleHost() *FakeHost {
	return NewFakeHost().
		AddType(protocol.RdType{ID: 1, Name: "Gen", FullName: "S.Gen", Flags: protocol.TypeIsPublic}).
		AddType(protocol.RdType{ID: 2, Name: "Erased", FullName: "S.Erased", Flags: protocol.TypeIsErased})
}

func TestFakeHost_GenerativeApplicationMintsFreshIDs(t *testing.T) {
	host := newSampleHost()
	ctx := context.Background()
	req := protocol.ApplyStaticArgumentsRequest{
		TypeID:                     1,
		FullTypePathAfterArguments: []string{"S", "Gen42"},
		StaticArgs:                 []protocol.RdStaticArg{{TypeName: "int32", Value: "42"}},
	}

	a, err := host.ApplyStaticArguments(ctx, req)
	if err != nil {
		t.Fatalf("ApplyStaticArguments() error = %v", err)
	}
	b, _ := host.ApplyStaticArguments(ctx, req)
	if a.ID == b.ID {
		t.Error("expected generative applications to mint distinct ids")
	}
	if a.Name != "Gen42" {
		t.Errorf("expected name from path, got %q", a.Name)
	}
}

func TestFakeHost_ErasedApplicationIsDeduplicated(t *testing.T) {
	host := newSampleHost()
	ctx := context.Background()
	req := protocol.ApplyStaticArgumentsRequest{
		TypeID:                     2,
		FullTypePathAfterArguments: []string{"S", "Erased1"},
		StaticArgs:                 []protocol.RdStaticArg{{TypeName: "string", Value: "x"}},
	}

	a, _ := host.ApplyStaticArguments(ctx, req)
	b, _ := host.ApplyStaticArguments(ctx, req)
	if a.ID != b.ID {
		t.Errorf("expected erased applications to share an id, got %d and %d", a.ID, b.ID)
	}
}

func TestFakeHost_ArrayAndDerivedTypes(t *testing.T) {
	host := newSampleHost()
	ctx := context.Background()

	a, _ := host.MakeArrayType(ctx, protocol.MakeArrayTypeRequest{TypeID: 1, Rank: 2})
	b, _ := host.MakeArrayType(ctx, protocol.MakeArrayTypeRequest{TypeID: 1, Rank: 2})
	if a.ID == b.ID {
		t.Error("expected array construction not to be deduplicated")
	}
	if a.Name != "Gen[,]" {
		t.Errorf("unexpected array name %q", a.Name)
	}
	if rank, _ := host.GetArrayRank(ctx, a.ID); rank != 2 {
		t.Errorf("expected rank 2, got %d", rank)
	}

	p1, _ := host.MakePointerType(ctx, 1)
	p2, _ := host.MakePointerType(ctx, 1)
	if p1 != p2 || p1.IsZero() {
		t.Errorf("expected pointer construction to be deduplicated, got %d and %d", p1, p2)
	}
	if elem, _ := host.GetElementType(ctx, p1); elem != 1 {
		t.Errorf("expected element type 1, got %d", elem)
	}
}

func TestFakeHost_FailureInjection(t *testing.T) {
	host := newSampleHost()
	ctx := context.Background()
	boom := errors.New("boom")
	host.Fail(protocol.MethodGetContent, boom, 1)

	if _, err := host.GetContent(ctx, 1); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if _, err := host.GetContent(ctx, 1); err != nil {
		t.Fatalf("expected failure to be consumed, got %v", err)
	}
	if got := host.Calls(protocol.MethodGetContent); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestFakeHost_DelayHonoursContext(t *testing.T) {
	host := newSampleHost()
	host.Delay(protocol.MethodGetTypes, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := host.GetTypes(ctx, []protocol.EntityID{1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if batches := host.Batches(protocol.MethodGetTypes); len(batches) != 1 || batches[0][0] != 1 {
		t.Errorf("unexpected recorded batches %v", batches)
	}
}

func TestFakeHost_Close(t *testing.T) {
	host := newSampleHost()
	if err := host.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := host.GetAssembly(context.Background(), 1); !errors.Is(err, ErrFakeHostClosed) {
		t.Errorf("expected ErrFakeHostClosed, got %v", err)
	}
	if !host.Closed() {
		t.Error("expected Closed to report true")
	}
}
