package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-typeprovider-cache/protocol"
	"go.trai.ch/zerr"
)

// ErrFakeHostClosed is returned by every call on a closed FakeHost.
var ErrFakeHostClosed = zerr.New("fake host closed")

var _ protocol.Host = (*FakeHost)(nil)

type attrKey struct {
	kind protocol.EntityKind
	id   protocol.EntityID
}

type injectedFailure struct {
	err       error
	remaining int // <= 0 means until Recover
}

// FakeHost is an in-memory protocol.Host for tests. It counts calls per wire
// method name, can fail, delay or panic on chosen methods, and behaves like
// a real host where it matters to the cache layer: erased applications and
// pointer/by-ref construction are deduplicated, generative applications,
// array and generic construction mint a fresh id on every call.
type FakeHost struct {
	mu sync.Mutex

	nextID protocol.EntityID
	closed bool

	assemblies   map[protocol.EntityID]*protocol.RdAssembly
	manifests    map[protocol.EntityID][]byte
	types        map[protocol.EntityID]*protocol.RdType
	contents     map[protocol.EntityID]*protocol.RdTypeContent
	nested       map[protocol.EntityID][]protocol.EntityID
	staticParams map[protocol.EntityID][]*protocol.RdParameter
	methodParams map[protocol.EntityID][]*protocol.RdParameter
	parameters   map[protocol.EntityID]*protocol.RdParameter
	attributes   map[attrKey][]protocol.RdCustomAttribute
	ints         map[string]map[protocol.EntityID]int
	refs         map[string]map[protocol.EntityID]protocol.EntityID
	erased       map[string]protocol.EntityID

	calls    map[string]int
	batches  map[string][][]protocol.EntityID
	failures map[string]*injectedFailure
	delays   map[string]time.Duration
	panics   map[string]any
}

// NewFakeHost returns an empty host. Minted ids start at 1000.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		nextID:       1000,
		assemblies:   make(map[protocol.EntityID]*protocol.RdAssembly),
		manifests:    make(map[protocol.EntityID][]byte),
		types:        make(map[protocol.EntityID]*protocol.RdType),
		contents:     make(map[protocol.EntityID]*protocol.RdTypeContent),
		nested:       make(map[protocol.EntityID][]protocol.EntityID),
		staticParams: make(map[protocol.EntityID][]*protocol.RdParameter),
		methodParams: make(map[protocol.EntityID][]*protocol.RdParameter),
		parameters:   make(map[protocol.EntityID]*protocol.RdParameter),
		attributes:   make(map[attrKey][]protocol.RdCustomAttribute),
		ints:         make(map[string]map[protocol.EntityID]int),
		refs:         make(map[string]map[protocol.EntityID]protocol.EntityID),
		erased:       make(map[string]protocol.EntityID),
		calls:        make(map[string]int),
		batches:      make(map[string][][]protocol.EntityID),
		failures:     make(map[string]*injectedFailure),
		delays:       make(map[string]time.Duration),
		panics:       make(map[string]any),
	}
}

// AddAssembly registers an assembly.
func (f *FakeHost) AddAssembly(a protocol.RdAssembly) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assemblies[a.ID] = &a
	return f
}

// SetManifest sets the manifest module contents of an assembly.
func (f *FakeHost) SetManifest(assembly protocol.EntityID, data []byte) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifests[assembly] = data
	return f
}

// AddType registers a type.
func (f *FakeHost) AddType(t protocol.RdType) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[t.ID] = &t
	return f
}

// SetContent sets the structural members of a type.
func (f *FakeHost) SetContent(typeID protocol.EntityID, content protocol.RdTypeContent) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[typeID] = &content
	return f
}

// SetNestedTypes sets the nested types of a type.
func (f *FakeHost) SetNestedTypes(typeID protocol.EntityID, nested ...protocol.EntityID) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nested[typeID] = nested
	return f
}

// SetStaticParameters sets the static parameters of a type.
func (f *FakeHost) SetStaticParameters(typeID protocol.EntityID, params ...protocol.RdParameter) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staticParams[typeID] = toPtrs(params)
	return f
}

// SetMethodStaticParameters sets the static parameters of a method.
func (f *FakeHost) SetMethodStaticParameters(methodID protocol.EntityID, params ...protocol.RdParameter) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methodParams[methodID] = toPtrs(params)
	return f
}

// AddParameter registers a method parameter.
func (f *FakeHost) AddParameter(p protocol.RdParameter) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parameters[p.ID] = &p
	return f
}

// SetCustomAttributes sets the custom attributes of an entity.
func (f *FakeHost) SetCustomAttributes(kind protocol.EntityKind, id protocol.EntityID, attrs ...protocol.RdCustomAttribute) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attributes[attrKey{kind: kind, id: id}] = attrs
	return f
}

// SetInt sets the answer of an int valued call (array rank, generic
// parameter position) for typeID.
func (f *FakeHost) SetInt(method string, typeID protocol.EntityID, v int) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ints[method] == nil {
		f.ints[method] = make(map[protocol.EntityID]int)
	}
	f.ints[method][typeID] = v
	return f
}

// SetRef sets the answer of an id valued call (element type, enum
// underlying type, generic type definition) for typeID.
func (f *FakeHost) SetRef(method string, typeID, ref protocol.EntityID) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setRefLocked(method, typeID, ref)
	return f
}

// Fail makes the next times calls of method return err. times <= 0 fails
// until Recover.
func (f *FakeHost) Fail(method string, err error, times int) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = &injectedFailure{err: err, remaining: times}
	return f
}

// Recover clears any failure, delay or panic injected for method.
func (f *FakeHost) Recover(method string) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, method)
	delete(f.delays, method)
	delete(f.panics, method)
	return f
}

// Delay makes every call of method wait d or until its context ends.
func (f *FakeHost) Delay(method string, d time.Duration) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[method] = d
	return f
}

// Panic makes every call of method panic with v.
func (f *FakeHost) Panic(method string, v any) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[method] = v
	return f
}

// Calls returns how often method was called, failed attempts included.
func (f *FakeHost) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeHost) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Batches returns the id lists passed to a batch method, in call order.
func (f *FakeHost) Batches(method string) [][]protocol.EntityID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]protocol.EntityID, len(f.batches[method]))
	copy(out, f.batches[method])
	return out
}

// ResetCalls clears call counters and recorded batches.
func (f *FakeHost) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
	f.batches = make(map[string][][]protocol.EntityID)
}

// Close makes every later call fail with ErrFakeHostClosed.
func (f *FakeHost) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeHost) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeHost) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	closed := f.closed
	delay := f.delays[method]
	panicValue, shouldPanic := f.panics[method]
	var failErr error
	if fail, ok := f.failures[method]; ok {
		failErr = fail.err
		if fail.remaining > 0 {
			fail.remaining--
			if fail.remaining == 0 {
				delete(f.failures, method)
			}
		}
	}
	f.mu.Unlock()

	if closed {
		return ErrFakeHostClosed
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if shouldPanic {
		panic(panicValue)
	}
	return failErr
}

func (f *FakeHost) mintLocked() protocol.EntityID {
	f.nextID++
	return f.nextID
}

func (f *FakeHost) setRefLocked(method string, typeID, ref protocol.EntityID) {
	if f.refs[method] == nil {
		f.refs[method] = make(map[protocol.EntityID]protocol.EntityID)
	}
	f.refs[method][typeID] = ref
}

func (f *FakeHost) getInt(ctx context.Context, method string, id protocol.EntityID) (int, error) {
	if err := f.enter(ctx, method); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ints[method][id], nil
}

func (f *FakeHost) getRef(ctx context.Context, method string, id protocol.EntityID) (protocol.EntityID, error) {
	if err := f.enter(ctx, method); err != nil {
		return protocol.NoEntity, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[method][id], nil
}

func (f *FakeHost) GetAssembly(ctx context.Context, id protocol.EntityID) (*protocol.RdAssembly, error) {
	if err := f.enter(ctx, protocol.MethodGetAssembly); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAssembly(f.assemblies[id]), nil
}

func (f *FakeHost) GetManifestModuleContents(ctx context.Context, assemblyID protocol.EntityID) ([]byte, error) {
	if err := f.enter(ctx, protocol.MethodGetManifestModuleContents); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.manifests[assemblyID]...), nil
}

func (f *FakeHost) GetTypes(ctx context.Context, ids []protocol.EntityID) ([]*protocol.RdType, error) {
	f.mu.Lock()
	f.batches[protocol.MethodGetTypes] = append(f.batches[protocol.MethodGetTypes], append([]protocol.EntityID(nil), ids...))
	f.mu.Unlock()
	if err := f.enter(ctx, protocol.MethodGetTypes); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*protocol.RdType, len(ids))
	for i, id := range ids {
		out[i] = cloneType(f.types[id])
	}
	return out, nil
}

func (f *FakeHost) GetContent(ctx context.Context, typeID protocol.EntityID) (*protocol.RdTypeContent, error) {
	if err := f.enter(ctx, protocol.MethodGetContent); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.contents[typeID]; ok {
		cp := *c
		return &cp, nil
	}
	return &protocol.RdTypeContent{}, nil
}

func (f *FakeHost) GetAllNestedTypes(ctx context.Context, typeID protocol.EntityID) ([]protocol.EntityID, error) {
	if err := f.enter(ctx, protocol.MethodGetAllNestedTypes); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.EntityID(nil), f.nested[typeID]...), nil
}

func (f *FakeHost) GetStaticParameters(ctx context.Context, typeID protocol.EntityID) ([]*protocol.RdParameter, error) {
	if err := f.enter(ctx, protocol.MethodGetStaticParameters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneParams(f.staticParams[typeID]), nil
}

func (f *FakeHost) GetGenericParameterPosition(ctx context.Context, typeID protocol.EntityID) (int, error) {
	return f.getInt(ctx, protocol.MethodGetGenericParameterPosition, typeID)
}

func (f *FakeHost) GetGenericTypeDefinition(ctx context.Context, typeID protocol.EntityID) (protocol.EntityID, error) {
	return f.getRef(ctx, protocol.MethodGetGenericTypeDefinition, typeID)
}

func (f *FakeHost) GetArrayRank(ctx context.Context, typeID protocol.EntityID) (int, error) {
	return f.getInt(ctx, protocol.MethodGetArrayRank, typeID)
}

func (f *FakeHost) GetElementType(ctx context.Context, typeID protocol.EntityID) (protocol.EntityID, error) {
	return f.getRef(ctx, protocol.MethodGetElementType, typeID)
}

func (f *FakeHost) GetEnumUnderlyingType(ctx context.Context, typeID protocol.EntityID) (protocol.EntityID, error) {
	return f.getRef(ctx, protocol.MethodGetEnumUnderlyingType, typeID)
}

func (f *FakeHost) MakePointerType(ctx context.Context, typeID protocol.EntityID) (protocol.EntityID, error) {
	return f.makeDerived(ctx, protocol.MethodMakePointerType, typeID, "*", protocol.TypeIsPointer)
}

func (f *FakeHost) MakeByRefType(ctx context.Context, typeID protocol.EntityID) (protocol.EntityID, error) {
	return f.makeDerived(ctx, protocol.MethodMakeByRefType, typeID, "&", protocol.TypeIsByRef)
}

// makeDerived answers pointer and by-ref construction. The host returns
// the same id for the same base, as a real host does.
func (f *FakeHost) makeDerived(ctx context.Context, method string, typeID protocol.EntityID, suffix string, flag protocol.TypeFlags) (protocol.EntityID, error) {
	if err := f.enter(ctx, method); err != nil {
		return protocol.NoEntity, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.refs[method][typeID]; ok {
		return id, nil
	}
	base, ok := f.types[typeID]
	if !ok {
		return protocol.NoEntity, nil
	}
	id := f.mintLocked()
	f.types[id] = &protocol.RdType{
		ID:        id,
		Name:      base.Name + suffix,
		FullName:  base.FullName + suffix,
		Namespace: base.Namespace,
		Flags:     flag,
		Assembly:  base.Assembly,
	}
	f.setRefLocked(method, typeID, id)
	f.setRefLocked(protocol.MethodGetElementType, id, typeID)
	return id, nil
}

func (f *FakeHost) MakeArrayType(ctx context.Context, req protocol.MakeArrayTypeRequest) (*protocol.RdType, error) {
	if err := f.enter(ctx, protocol.MethodMakeArrayType); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	base, ok := f.types[req.TypeID]
	if !ok {
		return nil, nil
	}
	suffix := "[" + strings.Repeat(",", max(req.Rank-1, 0)) + "]"
	id := f.mintLocked()
	t := &protocol.RdType{
		ID:        id,
		Name:      base.Name + suffix,
		FullName:  base.FullName + suffix,
		Namespace: base.Namespace,
		Flags:     protocol.TypeIsArray | protocol.TypeIsClass | protocol.TypeIsPublic,
		Assembly:  base.Assembly,
	}
	f.types[id] = t
	if f.ints[protocol.MethodGetArrayRank] == nil {
		f.ints[protocol.MethodGetArrayRank] = make(map[protocol.EntityID]int)
	}
	f.ints[protocol.MethodGetArrayRank][id] = req.Rank
	f.setRefLocked(protocol.MethodGetElementType, id, req.TypeID)
	return cloneType(t), nil
}

func (f *FakeHost) MakeGenericType(ctx context.Context, req protocol.MakeGenericTypeRequest) (*protocol.RdType, error) {
	if err := f.enter(ctx, protocol.MethodMakeGenericType); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.types[req.TypeID]
	if !ok {
		return nil, nil
	}
	names := make([]string, len(req.Arguments))
	for i, a := range req.Arguments {
		if t, ok := f.types[a]; ok {
			names[i] = t.FullName
		} else {
			names[i] = a.String()
		}
	}
	id := f.mintLocked()
	t := &protocol.RdType{
		ID:               id,
		Name:             def.Name,
		FullName:         def.FullName + "[" + strings.Join(names, ",") + "]",
		Namespace:        def.Namespace,
		Flags:            def.Flags | protocol.TypeIsGenericType,
		BaseType:         def.BaseType,
		DeclaringType:    def.DeclaringType,
		Assembly:         def.Assembly,
		GenericArguments: append([]protocol.EntityID(nil), req.Arguments...),
	}
	f.types[id] = t
	f.setRefLocked(protocol.MethodGetGenericTypeDefinition, id, req.TypeID)
	return cloneType(t), nil
}

// ApplyStaticArguments deduplicates erased applications by request and mints
// a fresh type for every generative application.
func (f *FakeHost) ApplyStaticArguments(ctx context.Context, req protocol.ApplyStaticArgumentsRequest) (*protocol.RdType, error) {
	if err := f.enter(ctx, protocol.MethodApplyStaticArguments); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	base, ok := f.types[req.TypeID]
	if !ok {
		return nil, nil
	}

	erased := base.Flags.Has(protocol.TypeIsErased)
	requestKey := fmt.Sprintf("%d|%q|%v", req.TypeID, req.FullTypePathAfterArguments, req.StaticArgs)
	if erased {
		if id, ok := f.erased[requestKey]; ok {
			return cloneType(f.types[id]), nil
		}
	}

	name := base.Name
	if n := len(req.FullTypePathAfterArguments); n > 0 {
		name = req.FullTypePathAfterArguments[n-1]
	}
	id := f.mintLocked()
	t := &protocol.RdType{
		ID:            id,
		Name:          name,
		FullName:      strings.Join(req.FullTypePathAfterArguments, "."),
		Namespace:     base.Namespace,
		Flags:         base.Flags,
		BaseType:      base.BaseType,
		DeclaringType: base.DeclaringType,
		Assembly:      base.Assembly,
	}
	f.types[id] = t
	if erased {
		f.erased[requestKey] = id
	}
	return cloneType(t), nil
}

func (f *FakeHost) GetParameters(ctx context.Context, ids []protocol.EntityID) ([]*protocol.RdParameter, error) {
	f.mu.Lock()
	f.batches[protocol.MethodGetParameters] = append(f.batches[protocol.MethodGetParameters], append([]protocol.EntityID(nil), ids...))
	f.mu.Unlock()
	if err := f.enter(ctx, protocol.MethodGetParameters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*protocol.RdParameter, len(ids))
	for i, id := range ids {
		if p, ok := f.parameters[id]; ok {
			cp := *p
			out[i] = &cp
		}
	}
	return out, nil
}

func (f *FakeHost) GetMethodStaticParameters(ctx context.Context, methodID protocol.EntityID) ([]*protocol.RdParameter, error) {
	if err := f.enter(ctx, protocol.MethodGetMethodStaticParameters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneParams(f.methodParams[methodID]), nil
}

func (f *FakeHost) ApplyMethodStaticArguments(ctx context.Context, req protocol.ApplyMethodStaticArgumentsRequest) (*protocol.RdMethod, error) {
	if err := f.enter(ctx, protocol.MethodApplyMethodStaticArguments); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.mintLocked()
	return &protocol.RdMethod{
		RdMethodBase: protocol.RdMethodBase{
			ID:    id,
			Name:  req.MethodName,
			Flags: protocol.MethodIsPublic | protocol.MethodIsStatic,
		},
	}, nil
}

func (f *FakeHost) GetCustomAttributes(ctx context.Context, kind protocol.EntityKind, id protocol.EntityID) ([]protocol.RdCustomAttribute, error) {
	if err := f.enter(ctx, protocol.MethodGetCustomAttributes); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.RdCustomAttribute(nil), f.attributes[attrKey{kind: kind, id: id}]...), nil
}

func toPtrs(params []protocol.RdParameter) []*protocol.RdParameter {
	out := make([]*protocol.RdParameter, len(params))
	for i := range params {
		p := params[i]
		out[i] = &p
	}
	return out
}

func cloneParams(params []*protocol.RdParameter) []*protocol.RdParameter {
	out := make([]*protocol.RdParameter, len(params))
	for i, p := range params {
		cp := *p
		out[i] = &cp
	}
	return out
}

func cloneType(t *protocol.RdType) *protocol.RdType {
	if t == nil {
		return nil
	}
	cp := *t
	cp.GenericArguments = append([]protocol.EntityID(nil), t.GenericArguments...)
	return &cp
}

func cloneAssembly(a *protocol.RdAssembly) *protocol.RdAssembly {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
