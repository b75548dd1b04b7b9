package proxy

import (
	"context"
	"strings"

	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// Well known type provider attributes.
const (
	DefinitionLocationAttribute = "Microsoft.FSharp.Core.CompilerServices.TypeProviderDefinitionLocationAttribute"
	XmlDocAttribute             = "Microsoft.FSharp.Core.CompilerServices.TypeProviderXmlDocAttribute"
	EditorHideMethodsAttribute  = "Microsoft.FSharp.Core.CompilerServices.TypeProviderEditorHideMethodsAttribute"
)

// Attributes is the custom attribute list of one entity.
type Attributes []protocol.RdCustomAttribute

// NamedArg is a named attribute argument with its value unboxed.
type NamedArg struct {
	Name  string
	Value any
}

// AttributeArgs are the unboxed arguments of one attribute.
type AttributeArgs struct {
	Positional []any
	Named      []NamedArg
}

// Location is a source position reported by a definition location
// attribute.
type Location struct {
	FilePath string
	Line     int
	Column   int
}

// Find returns the first attribute whose type matches name, either by full
// name or by the name after the last dot.
func (a Attributes) Find(name string) (protocol.RdCustomAttribute, bool) {
	for _, attr := range a {
		if matchesAttribute(attr.TypeFullName, name) {
			return attr, true
		}
	}
	return protocol.RdCustomAttribute{}, false
}

// ConstructorArgs returns the unboxed arguments of the attribute called
// name. ok is false when the attribute is absent.
func (a Attributes) ConstructorArgs(name string) (args AttributeArgs, ok bool, err error) {
	attr, found := a.Find(name)
	if !found {
		return AttributeArgs{}, false, nil
	}

	args.Positional = make([]any, len(attr.ConstructorArgs))
	for i, arg := range attr.ConstructorArgs {
		if args.Positional[i], err = protocol.UnboxStaticArg(arg); err != nil {
			return AttributeArgs{}, true, err
		}
	}
	args.Named = make([]NamedArg, len(attr.NamedArgs))
	for i, arg := range attr.NamedArgs {
		v, err := protocol.UnboxStaticArg(arg.Value)
		if err != nil {
			return AttributeArgs{}, true, err
		}
		args.Named[i] = NamedArg{Name: arg.Name, Value: v}
	}
	return args, true, nil
}

// DefinitionLocation reads the definition location attribute.
func (a Attributes) DefinitionLocation() (Location, bool) {
	args, ok, err := a.ConstructorArgs(DefinitionLocationAttribute)
	if !ok || err != nil {
		return Location{}, false
	}
	var loc Location
	for _, named := range args.Named {
		switch named.Name {
		case "FilePath":
			loc.FilePath, _ = named.Value.(string)
		case "Line":
			loc.Line = asInt(named.Value)
		case "Column":
			loc.Column = asInt(named.Value)
		}
	}
	return loc, true
}

// XmlDocs returns the text of every xml doc attribute, in order.
func (a Attributes) XmlDocs() []string {
	var docs []string
	for _, attr := range a {
		if !matchesAttribute(attr.TypeFullName, XmlDocAttribute) || len(attr.ConstructorArgs) == 0 {
			continue
		}
		if v, err := protocol.UnboxStaticArg(attr.ConstructorArgs[0]); err == nil {
			if s, ok := v.(string); ok {
				docs = append(docs, s)
			}
		}
	}
	return docs
}

// HasEditorHideMethods reports whether the editor hide methods attribute
// is present.
func (a Attributes) HasEditorHideMethods() bool {
	_, ok := a.Find(EditorHideMethodsAttribute)
	return ok
}

func matchesAttribute(fullName, name string) bool {
	if fullName == name {
		return true
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		fullName = fullName[i+1:]
	}
	return fullName == name
}

func asInt(v any) int {
	switch x := v.(type) {
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	}
	return 0
}

// attributesCell memoizes the custom attributes of one entity.
func attributesCell(c *Context, kind protocol.EntityKind, id protocol.EntityID) *lazy.Cell[Attributes] {
	return lazy.New(func(ctx context.Context) (Attributes, error) {
		attrs, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodGetCustomAttributes,
			func(ctx context.Context, h protocol.Host) ([]protocol.RdCustomAttribute, error) {
				return h.GetCustomAttributes(ctx, kind, id)
			})
		if err != nil {
			return nil, err
		}
		return Attributes(attrs), nil
	})
}
