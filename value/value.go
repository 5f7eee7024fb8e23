// Package value implements IonScript's tagged dynamic value: the single
// runtime representation shared by the compiler (constant folding), the
// virtual machine (the operand stack and globals), and host code crossing
// the embedding boundary.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags which variant a Value currently holds.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindDict
	KindFunction
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	case KindFunction:
		return "function"
	case KindHost:
		return "object"
	default:
		return "unknown"
	}
}

// Mask is a bitset of Kind values, used by AssertType to accept more than
// one kind at a call boundary.
type Mask uint16

const (
	MaskNil Mask = 1 << iota
	MaskBool
	MaskNumber
	MaskString
	MaskList
	MaskDict
	MaskFunction
	MaskHost
)

func maskOf(k Kind) Mask { return 1 << uint(k) }

// ScriptFunction is the payload of a Value of KindFunction: a callable
// compiled into the bytecode stream.
type ScriptFunction struct {
	Entry    int
	ArgCount int
	RegCount int
}

// hostCore is the identity-bearing core of a HostObject: two HostObjects
// are equal iff they share the same core pointer. Owned-shared cores track
// a reference count and a type-erased deleter; borrowed cores never free
// their payload.
type hostCore struct {
	payload  any
	owned    bool
	refCount int
	deleter  func(any)
}

// HostObject is a handle to a host-application value threaded through
// IonScript. TypeTag is a host-supplied identifier (never a language-level
// type descriptor, per the engine's re-architecture away from `typeid`).
type HostObject struct {
	TypeTag string
	core    *hostCore
}

// NewHostBorrowed wraps a host payload the engine will never free.
func NewHostBorrowed(typeTag string, payload any) *HostObject {
	return &HostObject{TypeTag: typeTag, core: &hostCore{payload: payload}}
}

// NewHostOwned wraps a host payload the engine reference-counts, invoking
// deleter when the last reference is released.
func NewHostOwned(typeTag string, payload any, deleter func(any)) *HostObject {
	return &HostObject{TypeTag: typeTag, core: &hostCore{payload: payload, owned: true, refCount: 1, deleter: deleter}}
}

// Payload returns the wrapped host value.
func (h *HostObject) Payload() any { return h.core.payload }

// IsOwned reports whether the engine reference-counts this object.
func (h *HostObject) IsOwned() bool { return h.core.owned }

// Retain increments the reference count of an owned-shared host object. It
// is a no-op for borrowed objects.
func (h *HostObject) Retain() {
	if h.core.owned {
		h.core.refCount++
	}
}

// Release decrements the reference count of an owned-shared host object,
// invoking its deleter once the count reaches zero. It is a no-op for
// borrowed objects.
func (h *HostObject) Release() {
	if !h.core.owned {
		return
	}
	h.core.refCount--
	if h.core.refCount <= 0 && h.core.deleter != nil {
		h.core.deleter(h.core.payload)
	}
}

func (h *HostObject) identity() *hostCore { return h.core }

// List is the payload of a Value of KindList: an ordered, shared sequence.
// Go's garbage collector carries the "shared ownership" the spec describes
// for containers, so no manual reference count is kept here.
type List struct {
	Items []Value
}

// Dictionary is the payload of a Value of KindDict: a Value-to-Value
// mapping. Lookup/insertion equality is structural (kind-qualified);
// enumeration order sorts by each key's to_string rendering, which is the
// documented (if slightly surprising) IonScript ordering rule: a string key
// "1" and a number key 1 render identically and therefore tie in order,
// even though they remain distinct, unequal keys for lookup purposes.
type Dictionary struct {
	entries map[string]dictEntry
}

type dictEntry struct {
	key   Value
	value Value
}

// NewDictionary returns an empty Dictionary value.
func NewDictionary() Value {
	return Value{kind: KindDict, dict: &Dictionary{entries: make(map[string]dictEntry)}}
}

func lookupKey(k Value) string {
	return fmt.Sprintf("%d:%s", k.kind, k.ToString())
}

// Get returns the value bound to key, or Nil if key is absent.
func (d *Dictionary) Get(key Value) Value {
	if e, ok := d.entries[lookupKey(key)]; ok {
		return e.value
	}
	return Nil()
}

// Has reports whether key is bound in the dictionary.
func (d *Dictionary) Has(key Value) bool {
	_, ok := d.entries[lookupKey(key)]
	return ok
}

// Set binds key to val, replacing any existing binding.
func (d *Dictionary) Set(key, val Value) {
	d.entries[lookupKey(key)] = dictEntry{key: key, value: val}
}

// Len returns the number of entries in the dictionary.
func (d *Dictionary) Len() int { return len(d.entries) }

// Keys returns the dictionary's keys, sorted by each key's string
// rendering, per the documented (and conflating) ordering rule.
func (d *Dictionary) Keys() []Value {
	keys := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		keys = append(keys, e.key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ToString() < keys[j].ToString() })
	return keys
}

// Value is IonScript's tagged dynamic value.
type Value struct {
	kind    Kind
	num     float64
	boolean bool
	str     string
	list    *List
	dict    *Dictionary
	fn      ScriptFunction
	host    *HostObject
}

func Nil() Value               { return Value{kind: KindNil} }
func Boolean(b bool) Value     { return Value{kind: KindBool, boolean: b} }
func Number(n float64) Value   { return Value{kind: KindNumber, num: n} }
func NewString(s string) Value { return Value{kind: KindString, str: s} }
func NewList(items []Value) Value {
	return Value{kind: KindList, list: &List{Items: items}}
}
func NewFunction(entry, argCount, regCount int) Value {
	return Value{kind: KindFunction, fn: ScriptFunction{Entry: entry, ArgCount: argCount, RegCount: regCount}}
}
func NewHost(obj *HostObject) Value { return Value{kind: KindHost, host: obj} }

func (v Value) Kind() Kind                { return v.kind }
func (v Value) Bool() bool                { return v.boolean }
func (v Value) NumberValue() float64      { return v.num }
func (v Value) StringValue() string       { return v.str }
func (v Value) ListValue() *List          { return v.list }
func (v Value) DictValue() *Dictionary    { return v.dict }
func (v Value) FuncValue() ScriptFunction { return v.fn }
func (v Value) HostValue() *HostObject    { return v.host }

// IsInteger reports whether a Number round-trips exactly through a 32-bit
// signed integer truncation.
func (v Value) IsInteger() bool {
	if v.kind != KindNumber {
		return false
	}
	return float64(int32(v.num)) == v.num
}

// IsPositiveInteger reports whether v IsInteger and is >= 0.
func (v Value) IsPositiveInteger() bool {
	return v.IsInteger() && v.num >= 0
}

// Truthy implements IonScript's truthiness coercion rule (spec.md §4.1).
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.boolean
	case KindNumber:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindList:
		return len(v.list.Items) > 0
	case KindDict:
		return v.dict.Len() > 0
	case KindFunction:
		return true
	case KindHost:
		return v.host != nil
	}
	return false
}

// ToString renders v using IonScript's canonical per-kind formatting.
func (v Value) ToString() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindList:
		parts := make([]string, len(v.list.Items))
		for i, item := range v.list.Items {
			parts[i] = quoteIfString(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		keys := v.dict.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", quoteIfString(k), quoteIfString(v.dict.Get(k)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		return fmt.Sprintf("<function at %d>", v.fn.Entry)
	case KindHost:
		kind := "object"
		if v.host.IsOwned() {
			kind = "managed object"
		}
		return fmt.Sprintf("<%s %s at %p>", kind, v.host.TypeTag, v.host.core)
	}
	return "nil"
}

func quoteIfString(v Value) string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.ToString()
}

// Equal implements IonScript's structural equality (spec.md §4.1).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindList:
		if len(v.list.Items) != len(other.list.Items) {
			return false
		}
		for i := range v.list.Items {
			if !v.list.Items[i].Equal(other.list.Items[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if v.dict.Len() != other.dict.Len() {
			return false
		}
		for _, k := range v.dict.Keys() {
			if !other.dict.Has(k) || !v.dict.Get(k).Equal(other.dict.Get(k)) {
				return false
			}
		}
		return true
	case KindFunction:
		return v.fn.Entry == other.fn.Entry
	case KindHost:
		return v.host.identity() == other.host.identity()
	}
	return false
}
