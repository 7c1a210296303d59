// Package executor resolves GraphQL operations against user types.
//
// # Capability interfaces
//
// Every schema type implements Type and registers its metadata in a
// registry.Registry. Output types implement OutputType; composite output
// types also implement ObjectType and dispatch single fields from
// ResolveField. Input types implement InputType. A subscription root
// implements SubscriptionType, and a federated query root implements
// EntityResolver.
//
// # Resolution
//
// ResolveObject walks a selection set against an ObjectType:
//  1. Fields are collected by response name in first-occurrence order,
//     honoring fragments, type conditions and @skip/@include.
//  2. Each field resolves on its own goroutine. Its context carries the
//     response path (an immutable PathNode chain) and a ResolveID unique
//     within the operation.
//  3. Results are assembled into an ordered object in selection order,
//     independent of completion order.
//
// Mutation roots use ResolveObjectSerial instead, which resolves fields one
// at a time.
//
// # Errors
//
// A resolver error is converted into an *Error carrying the field position
// and path, and reported to the extension chain once. At a nullable field
// the value becomes null and the error is recorded in the QueryEnv. At a
// non-null field the error propagates to the parent, which fails in turn
// until a nullable ancestor absorbs it. If none does, the operation has no
// data. Cancellation of the request context propagates regardless of
// nullability.
//
// # Scopes
//
// SchemaEnv holds the registry and schema-lifetime data; QueryEnv holds the
// document, coerced variables and request data of one operation. Data, DataOpt
// and DataUnchecked look a type up in the query scope first, then in the
// schema scope.
//
// # Extensions
//
// Extensions observe parse, validation, execution and per-field resolve
// phases. The Extensions chain forwards each hook to every member under a
// single lock. Per-field hooks of concurrent fields interleave and are paired
// by ResolveID.
package executor
