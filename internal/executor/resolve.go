package executor

import (
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/hanpama/graphcore/internal/registry"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"
)

// Object is the JSON-shaped value of a resolved selection set. Its keys
// follow the order of the selection set.
type Object = orderedmap.OrderedMap[string, any]

// ExecuteRoot resolves an operation's root selection set and assembles the
// response. A failure reaching the root leaves the response without data.
func ExecuteRoot(ctx *SelectionContext, root ObjectType, serial bool) *Response {
	data, err := resolveObject(ctx, root, serial)
	resp := &Response{}
	if err != nil {
		var failure *fieldFailure
		if !errors.As(err, &failure) {
			e := &Error{Kind: ErrQuery, Message: err.Error(), Err: err}
			ctx.extensions().Error(e)
			failure = &fieldFailure{err: e}
		}
		ctx.queryEnv.addError(failure.err)
	} else {
		resp.Data = data
	}
	resp.Errors = ctx.queryEnv.TakeErrors()
	return resp
}

// ResolveObject resolves the selection set of ctx against obj. Fields are
// resolved concurrently; the result lists them in selection order.
//
// A field that fails at a nullable position becomes null and its error is
// recorded. A failure at a non-null position fails the whole object and is
// returned, to be absorbed by the nearest nullable ancestor.
func ResolveObject(ctx *SelectionContext, obj ObjectType) (any, error) {
	return resolveObject(ctx, obj, false)
}

// ResolveObjectSerial is ResolveObject with fields resolved one after
// another in selection order, as required for mutation roots.
func ResolveObjectSerial(ctx *SelectionContext, obj ObjectType) (any, error) {
	return resolveObject(ctx, obj, true)
}

func resolveObject(ctx *SelectionContext, obj ObjectType, serial bool) (any, error) {
	parent := ctx.Registry().Types[obj.TypeName()]
	if parent == nil {
		return nil, fmt.Errorf("type %q is not registered", obj.TypeName())
	}
	groups := collectFields(ctx.Registry(), ctx.queryEnv, parent, ctx.SelectionSet)

	values := make([]any, len(groups))
	errs := make([]error, len(groups))
	if serial {
		for i, group := range groups {
			values[i], errs[i] = resolveField(ctx, obj, parent, group)
			if errs[i] != nil {
				break
			}
		}
	} else {
		var g errgroup.Group
		if n := ctx.queryEnv.maxConcurrency; n > 0 {
			g.SetLimit(n)
		}
		for i, group := range groups {
			g.Go(func() error {
				values[i], errs[i] = resolveField(ctx, obj, parent, group)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := firstFailure(ctx.queryEnv, errs); err != nil {
		return nil, err
	}
	out := orderedmap.New[string, any]()
	for i, group := range groups {
		out.Set(group.ResponseName, values[i])
	}
	return out, nil
}

// firstFailure returns the failure that fails the parent: a fatal one if
// any, otherwise the first in selection order. The other failures are
// discarded along with their siblings' values, so their errors are recorded
// here.
func firstFailure(q *QueryEnv, errs []error) error {
	chosen := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if chosen < 0 {
			chosen = i
		}
		if f, ok := err.(*fieldFailure); ok && f.fatal() {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return nil
	}
	for i, err := range errs {
		if err == nil || i == chosen {
			continue
		}
		if f, ok := err.(*fieldFailure); ok && !f.fatal() {
			q.addError(f.err)
		}
	}
	return errs[chosen]
}

func resolveField(ctx *SelectionContext, obj ObjectType, parent *registry.MetaType, group collectedField) (any, error) {
	field := group.field()
	fc := &FieldContext{
		resolveContext: resolveContext{
			ctx:       ctx.ctx,
			path:      ctx.path.Field(group.ResponseName),
			schemaEnv: ctx.schemaEnv,
			queryEnv:  ctx.queryEnv,
		},
		Field:      field,
		ParentType: parent.Name,
		meta:       parent.Field(field.Name),
	}

	if err := ctx.ctx.Err(); err != nil {
		return fc.absorb(err, true)
	}
	if field.Name == "__typename" {
		return obj.TypeName(), nil
	}
	if fc.meta == nil {
		return fc.absorb(fc.Errorf(QueryErrFieldNotFound, "Unknown field %q on type %q.", field.Name, parent.Name), true)
	}
	fc.resolveID = ResolveID{Parent: ctx.parentID, Current: ctx.queryEnv.nextResolveID()}

	nonNull := fc.meta.Type.IsNonNull()
	info := fc.resolveInfo()
	ext := fc.extensions()
	ext.ResolveStart(info)
	v, err := obj.ResolveField(fc)
	ext.ResolveEnd(info)

	if err != nil {
		return fc.absorb(err, nonNull)
	}
	if nonNull && isNullish(v) {
		return fc.absorb(fc.nonNullError(), true)
	}
	return v, nil
}

// ResolveOutput resolves v against the sub-selection of the field in ctx.
// A nil v, including a typed nil pointer, resolves to null.
func ResolveOutput(ctx *FieldContext, v OutputType) (any, error) {
	if isNullish(v) {
		return nil, nil
	}
	return v.Resolve(ctx.WithSelectionSet(), ctx.Field)
}

// ResolveList resolves each item against the field's sub-selection,
// concurrently, with index path segments. Item failures follow the
// nullability of the list's item type.
func ResolveList[T OutputType](ctx *FieldContext, items []T) (any, error) {
	return ResolveEach(ctx, len(items), func(item *FieldContext, i int) (any, error) {
		return ResolveOutput(item, items[i])
	})
}

// ResolveEach resolves a list of n items, calling resolve concurrently with
// the context of each item. Errors and nulls are handled as in ResolveList.
func ResolveEach(ctx *FieldContext, n int, resolve func(item *FieldContext, i int) (any, error)) (any, error) {
	itemNonNull := false
	if ctx.meta != nil {
		if lt := ctx.meta.Type.Nullable(); lt.Kind == registry.TypeRefKindList {
			itemNonNull = lt.OfType.IsNonNull()
		}
	}

	values := make([]any, n)
	errs := make([]error, n)
	var g errgroup.Group
	if limit := ctx.queryEnv.maxConcurrency; limit > 0 {
		g.SetLimit(limit)
	}
	for i := range n {
		g.Go(func() error {
			ic := ctx.Index(i)
			v, err := resolve(ic, i)
			switch {
			case err != nil:
				v, err = ic.absorb(err, itemNonNull)
			case itemNonNull && isNullish(v):
				v, err = ic.absorb(ic.nonNullError(), true)
			}
			values[i], errs[i] = v, err
			return nil
		})
	}
	_ = g.Wait()

	if err := firstFailure(ctx.queryEnv, errs); err != nil {
		return nil, err
	}
	return values, nil
}

// ResolveSubscription opens the event stream of the root field of ctx's
// selection set. Each event becomes one Response; errors recorded while an
// event was resolved are attached to it.
func ResolveSubscription(ctx *SelectionContext, sub SubscriptionType) iter.Seq[*Response] {
	return func(yield func(*Response) bool) {
		parent := ctx.Registry().Types[sub.TypeName()]
		if parent == nil || sub.IsEmpty() {
			yield(ErrorResponse(NewQueryError(QueryErrNotConfiguredSubscriptions, Pos{}, nil, "Schema is not configured for subscriptions.")))
			return
		}
		groups := collectFields(ctx.Registry(), ctx.queryEnv, parent, ctx.SelectionSet)
		if len(groups) != 1 {
			yield(ErrorResponse(NewQueryError(QueryErrNotSupported, Pos{}, nil, "Subscription operations must select exactly one root field.")))
			return
		}
		group := groups[0]
		field := group.field()
		fc := &FieldContext{
			resolveContext: resolveContext{
				ctx:       ctx.ctx,
				path:      ctx.path.Field(group.ResponseName),
				schemaEnv: ctx.schemaEnv,
				queryEnv:  ctx.queryEnv,
			},
			Field:      field,
			ParentType: parent.Name,
			meta:       parent.Field(field.Name),
			resolveID:  ResolveID{Current: ctx.queryEnv.nextResolveID()},
		}
		if fc.meta == nil {
			err := fc.fail(fc.Errorf(QueryErrFieldNotFound, "Unknown field %q on type %q.", field.Name, parent.Name))
			yield(ErrorResponse(err.err))
			return
		}

		for v, err := range sub.CreateFieldStream(fc) {
			var resp *Response
			if err != nil {
				resp = ErrorResponse(fc.fail(err).err)
			} else {
				data := orderedmap.New[string, any]()
				data.Set(group.ResponseName, v)
				resp = &Response{Data: data}
			}
			if recorded := ctx.queryEnv.TakeErrors(); len(recorded) > 0 {
				resp.Errors = append(recorded, resp.Errors...)
			}
			if !yield(resp) {
				return
			}
		}
	}
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
