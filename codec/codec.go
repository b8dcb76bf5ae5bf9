// Package codec implements the order-preserving key encoding library
// spec.md §4.1 is built on: a composable set of codecs whose concatenation
// preserves the lexicographic ordering of the tuples they encode.
//
// The OCaml source this distills from uses phantom compile-time arity tags
// (GADTs) to constrain which tuple positions minK/maxK/lowerK/upperK may
// touch. Go has no GADTs, so each arity is its own type (Tuple2Codec ..
// Tuple5Codec) that exposes only the LowerKn/UpperKn methods valid for it;
// asking for an out-of-range position does not compile.
package codec

import "fmt"

// Kind identifies the category of encoding error, mirroring spec.md §4.1's
// error taxonomy.
type Kind int

const (
	// UnsatisfiedConstraint signals a value the codec cannot represent
	// under its ordering rules (e.g. a negative number fed to
	// PositiveInt64).
	UnsatisfiedConstraint Kind = iota
	// IncompleteFragment signals a decode that ran out of bytes mid-value.
	IncompleteFragment
	// BadEncoding signals bytes that don't form a valid encoding of the
	// codec's type (e.g. an escape sequence that isn't terminated).
	BadEncoding
	// UnknownTag signals a choice codec tag byte outside its declared
	// range.
	UnknownTag
)

func (k Kind) String() string {
	switch k {
	case UnsatisfiedConstraint:
		return "UnsatisfiedConstraint"
	case IncompleteFragment:
		return "IncompleteFragment"
	case BadEncoding:
		return "BadEncoding"
	case UnknownTag:
		return "UnknownTag"
	default:
		return "UnknownErrorKind"
	}
}

// Error is the single error type every codec in this package returns.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return "codec: " + e.Kind.String()
	}
	return fmt.Sprintf("codec: %s: %s", e.Kind, e.Reason)
}

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Codec is an order-preserving encoder/decoder for values of type T.
//
// Implementations must satisfy, for all representable x, y:
//
//	decode(encode(x)) == x
//	x < y  =>  bytes.Compare(encode(x), encode(y)) < 0
//	x == y =>  bytes.Compare(encode(x), encode(y)) == 0
//	min() <= x <= max()
//	pred(succ(x)) == x unless x == max()
//	succ(pred(x)) == x unless x == min()
//	succ(max()) == max(), pred(min()) == min()   (saturating)
type Codec[T any] interface {
	// Encode appends the encoding of x to out and returns the result.
	Encode(out []byte, x T) []byte
	// Decode reads one value of T from the front of b and returns it
	// along with the number of bytes consumed.
	Decode(b []byte) (T, int, error)
	// Min returns the smallest representable value.
	Min() T
	// Max returns the largest representable value.
	Max() T
	// Succ returns the next larger value, saturating at Max.
	Succ(x T) T
	// Pred returns the next smaller value, saturating at Min.
	Pred(x T) T
	// Pretty-prints x for diagnostics.
	Pp(x T) string
}
