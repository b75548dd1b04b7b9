package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// Property is the proxy of a provided property.
type Property struct {
	c   *Context
	rec protocol.RdProperty

	getter *Method
	setter *Method

	declaringType *lazy.Cell[*Type]
	propertyType  *lazy.Cell[*Type]
	indexParams   *lazy.Cell[[]*Parameter]
	attributes    *lazy.Cell[Attributes]
}

func newProperty(c *Context, owner *Type, rec *protocol.RdProperty) *Property {
	p := &Property{
		c:             c,
		rec:           *rec,
		declaringType: declaringTypeCell(c, owner, rec.DeclaringType),
		propertyType:  typeRefCell(c, rec.PropertyType),
		attributes:    attributesCell(c, protocol.KindProperty, rec.ID),
	}
	if rec.GetMethod != nil {
		p.getter = newMethod(c, owner, rec.GetMethod)
	}
	if rec.SetMethod != nil {
		p.setter = newMethod(c, owner, rec.SetMethod)
	}
	p.indexParams = lazy.New(func(ctx context.Context) ([]*Parameter, error) {
		return c.ParametersByID(ctx, p.rec.IndexParameters)
	})
	return p
}

func (p *Property) Key() cache.EntityKey      { return p.c.key(p.rec.ID) }
func (p *Property) Kind() protocol.EntityKind { return protocol.KindProperty }
func (p *Property) ID() protocol.EntityID     { return p.rec.ID }
func (p *Property) Name() string              { return p.rec.Name }
func (p *Property) CanRead() bool             { return p.rec.Flags.Has(protocol.PropertyCanRead) }
func (p *Property) CanWrite() bool            { return p.rec.Flags.Has(protocol.PropertyCanWrite) }

// GetGetMethod returns the getter, nil if the property has none.
func (p *Property) GetGetMethod() *Method { return p.getter }

// GetSetMethod returns the setter, nil if the property has none.
func (p *Property) GetSetMethod() *Method { return p.setter }

func (p *Property) DeclaringType(ctx context.Context) (*Type, error) {
	return get(ctx, p.c, p.declaringType)
}

func (p *Property) PropertyType(ctx context.Context) (*Type, error) {
	return get(ctx, p.c, p.propertyType)
}

// GetIndexParameters returns the index parameters of an indexer.
func (p *Property) GetIndexParameters(ctx context.Context) ([]*Parameter, error) {
	return get(ctx, p.c, p.indexParams)
}

func (p *Property) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, p.c, p.attributes)
}

// Field is the proxy of a provided field.
type Field struct {
	c   *Context
	rec protocol.RdField

	declaringType *lazy.Cell[*Type]
	fieldType     *lazy.Cell[*Type]
	attributes    *lazy.Cell[Attributes]
}

func newField(c *Context, owner *Type, rec *protocol.RdField) *Field {
	return &Field{
		c:             c,
		rec:           *rec,
		declaringType: declaringTypeCell(c, owner, rec.DeclaringType),
		fieldType:     typeRefCell(c, rec.FieldType),
		attributes:    attributesCell(c, protocol.KindField, rec.ID),
	}
}

func (f *Field) Key() cache.EntityKey      { return f.c.key(f.rec.ID) }
func (f *Field) Kind() protocol.EntityKind { return protocol.KindField }
func (f *Field) ID() protocol.EntityID     { return f.rec.ID }
func (f *Field) Name() string              { return f.rec.Name }
func (f *Field) Flags() protocol.FieldFlags { return f.rec.Flags }

func (f *Field) IsInitOnly() bool          { return f.rec.Flags.Has(protocol.FieldIsInitOnly) }
func (f *Field) IsStatic() bool            { return f.rec.Flags.Has(protocol.FieldIsStatic) }
func (f *Field) IsSpecialName() bool       { return f.rec.Flags.Has(protocol.FieldIsSpecialName) }
func (f *Field) IsLiteral() bool           { return f.rec.Flags.Has(protocol.FieldIsLiteral) }
func (f *Field) IsPublic() bool            { return f.rec.Flags.Has(protocol.FieldIsPublic) }
func (f *Field) IsPrivate() bool           { return f.rec.Flags.Has(protocol.FieldIsPrivate) }
func (f *Field) IsFamily() bool            { return f.rec.Flags.Has(protocol.FieldIsFamily) }
func (f *Field) IsFamilyOrAssembly() bool  { return f.rec.Flags.Has(protocol.FieldIsFamilyOrAssembly) }
func (f *Field) IsFamilyAndAssembly() bool { return f.rec.Flags.Has(protocol.FieldIsFamilyAndAssembly) }

// GetRawConstantValue returns the unboxed value of a literal field, nil for
// other fields.
func (f *Field) GetRawConstantValue() (any, error) {
	if f.rec.RawConstantValue == nil {
		return nil, nil
	}
	return protocol.UnboxStaticArg(*f.rec.RawConstantValue)
}

func (f *Field) DeclaringType(ctx context.Context) (*Type, error) {
	return get(ctx, f.c, f.declaringType)
}

func (f *Field) FieldType(ctx context.Context) (*Type, error) {
	return get(ctx, f.c, f.fieldType)
}

func (f *Field) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, f.c, f.attributes)
}

// Event is the proxy of a provided event.
type Event struct {
	c   *Context
	rec protocol.RdEvent

	adder   *Method
	remover *Method

	declaringType *lazy.Cell[*Type]
	handlerType   *lazy.Cell[*Type]
	attributes    *lazy.Cell[Attributes]
}

func newEvent(c *Context, owner *Type, rec *protocol.RdEvent) *Event {
	e := &Event{
		c:             c,
		rec:           *rec,
		declaringType: declaringTypeCell(c, owner, rec.DeclaringType),
		handlerType:   typeRefCell(c, rec.EventHandlerType),
		attributes:    attributesCell(c, protocol.KindEvent, rec.ID),
	}
	if rec.AddMethod != nil {
		e.adder = newMethod(c, owner, rec.AddMethod)
	}
	if rec.RemoveMethod != nil {
		e.remover = newMethod(c, owner, rec.RemoveMethod)
	}
	return e
}

func (e *Event) Key() cache.EntityKey      { return e.c.key(e.rec.ID) }
func (e *Event) Kind() protocol.EntityKind { return protocol.KindEvent }
func (e *Event) ID() protocol.EntityID     { return e.rec.ID }
func (e *Event) Name() string              { return e.rec.Name }
func (e *Event) GetAddMethod() *Method     { return e.adder }
func (e *Event) GetRemoveMethod() *Method  { return e.remover }

func (e *Event) DeclaringType(ctx context.Context) (*Type, error) {
	return get(ctx, e.c, e.declaringType)
}

func (e *Event) EventHandlerType(ctx context.Context) (*Type, error) {
	return get(ctx, e.c, e.handlerType)
}

func (e *Event) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, e.c, e.attributes)
}
