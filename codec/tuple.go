package codec

// Tuple2 through Tuple5 encode a fixed-arity sequence of heterogeneous
// codecs by concatenating each element's encoding in order. Concatenation
// of order-preserving codecs preserves order lexicographically over the
// tuple as long as every element codec is itself order-preserving and
// self-delimiting (spec.md §4.1) — this is why self_delimited_string exists
// rather than a length-prefixed string, which would not compare correctly
// byte-for-byte against a different-length neighbor.
//
// The OCaml source this distills from uses GADTs to let minK/maxK/lowerK/
// upperK accept only an index that exists for a given tuple arity, checked
// at compile time. Go generics can't express a variadic, arity-indexed
// family of types without code generation, so each arity gets its own
// concrete type (Tuple2Codec..Tuple5Codec) and the K-indexed operations are
// plain methods named by position (e.g. Tuple3Codec.LowerK1) rather than a
// single parameterized operation. The compile-time guarantee is kept: the
// method simply doesn't exist for an out-of-range position.

// Tuple2Codec concatenates two element codecs.
type Tuple2Codec[A, B any] struct {
	A Codec[A]
	B Codec[B]
}

type Pair[A, B any] struct {
	X1 A
	X2 B
}

func (c Tuple2Codec[A, B]) Encode(out []byte, x Pair[A, B]) []byte {
	out = c.A.Encode(out, x.X1)
	out = c.B.Encode(out, x.X2)
	return out
}

func (c Tuple2Codec[A, B]) Decode(b []byte) (Pair[A, B], int, error) {
	var zero Pair[A, B]
	x1, n1, err := c.A.Decode(b)
	if err != nil {
		return zero, 0, err
	}
	x2, n2, err := c.B.Decode(b[n1:])
	if err != nil {
		return zero, 0, err
	}
	return Pair[A, B]{x1, x2}, n1 + n2, nil
}

func (c Tuple2Codec[A, B]) Min() Pair[A, B] { return Pair[A, B]{c.A.Min(), c.B.Min()} }
func (c Tuple2Codec[A, B]) Max() Pair[A, B] { return Pair[A, B]{c.A.Max(), c.B.Max()} }

func (c Tuple2Codec[A, B]) Succ(x Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{x.X1, c.B.Succ(x.X2)}
}
func (c Tuple2Codec[A, B]) Pred(x Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{x.X1, c.B.Pred(x.X2)}
}
func (c Tuple2Codec[A, B]) Pp(x Pair[A, B]) string {
	return "(" + c.A.Pp(x.X1) + ", " + c.B.Pp(x.X2) + ")"
}

// LowerK1 returns the smallest tuple whose first component is x1: x1
// paired with the second codec's minimum. Used to build a scan's lower
// bound when only a prefix of the key is known (spec.md §4.1 minK/lowerK).
func (c Tuple2Codec[A, B]) LowerK1(x1 A) Pair[A, B] { return Pair[A, B]{x1, c.B.Min()} }

// UpperK1 returns the largest tuple whose first component is x1.
func (c Tuple2Codec[A, B]) UpperK1(x1 A) Pair[A, B] { return Pair[A, B]{x1, c.B.Max()} }

// Tuple3Codec concatenates three element codecs.
type Tuple3Codec[A, B, C any] struct {
	A Codec[A]
	B Codec[B]
	C Codec[C]
}

type Triple[A, B, C any] struct {
	X1 A
	X2 B
	X3 C
}

func (c Tuple3Codec[A, B, C]) Encode(out []byte, x Triple[A, B, C]) []byte {
	out = c.A.Encode(out, x.X1)
	out = c.B.Encode(out, x.X2)
	out = c.C.Encode(out, x.X3)
	return out
}

func (c Tuple3Codec[A, B, C]) Decode(b []byte) (Triple[A, B, C], int, error) {
	var zero Triple[A, B, C]
	x1, n1, err := c.A.Decode(b)
	if err != nil {
		return zero, 0, err
	}
	x2, n2, err := c.B.Decode(b[n1:])
	if err != nil {
		return zero, 0, err
	}
	x3, n3, err := c.C.Decode(b[n1+n2:])
	if err != nil {
		return zero, 0, err
	}
	return Triple[A, B, C]{x1, x2, x3}, n1 + n2 + n3, nil
}

func (c Tuple3Codec[A, B, C]) Min() Triple[A, B, C] {
	return Triple[A, B, C]{c.A.Min(), c.B.Min(), c.C.Min()}
}
func (c Tuple3Codec[A, B, C]) Max() Triple[A, B, C] {
	return Triple[A, B, C]{c.A.Max(), c.B.Max(), c.C.Max()}
}
func (c Tuple3Codec[A, B, C]) Succ(x Triple[A, B, C]) Triple[A, B, C] {
	return Triple[A, B, C]{x.X1, x.X2, c.C.Succ(x.X3)}
}
func (c Tuple3Codec[A, B, C]) Pred(x Triple[A, B, C]) Triple[A, B, C] {
	return Triple[A, B, C]{x.X1, x.X2, c.C.Pred(x.X3)}
}
func (c Tuple3Codec[A, B, C]) Pp(x Triple[A, B, C]) string {
	return "(" + c.A.Pp(x.X1) + ", " + c.B.Pp(x.X2) + ", " + c.C.Pp(x.X3) + ")"
}

// LowerK2 fixes the first two components and minimizes the third.
func (c Tuple3Codec[A, B, C]) LowerK2(x1 A, x2 B) Triple[A, B, C] {
	return Triple[A, B, C]{x1, x2, c.C.Min()}
}

// UpperK2 fixes the first two components and maximizes the third.
func (c Tuple3Codec[A, B, C]) UpperK2(x1 A, x2 B) Triple[A, B, C] {
	return Triple[A, B, C]{x1, x2, c.C.Max()}
}

// LowerK1 fixes only the first component.
func (c Tuple3Codec[A, B, C]) LowerK1(x1 A) Triple[A, B, C] {
	return Triple[A, B, C]{x1, c.B.Min(), c.C.Min()}
}

// UpperK1 fixes only the first component.
func (c Tuple3Codec[A, B, C]) UpperK1(x1 A) Triple[A, B, C] {
	return Triple[A, B, C]{x1, c.B.Max(), c.C.Max()}
}

// Tuple4Codec concatenates four element codecs. This arity is what
// kvschema uses for the keyspace/table/key/column prefix ahead of the
// descending-timestamp suffix (spec.md §4.2).
type Tuple4Codec[A, B, C, D any] struct {
	A Codec[A]
	B Codec[B]
	C Codec[C]
	D Codec[D]
}

type Quad[A, B, C, D any] struct {
	X1 A
	X2 B
	X3 C
	X4 D
}

func (c Tuple4Codec[A, B, C, D]) Encode(out []byte, x Quad[A, B, C, D]) []byte {
	out = c.A.Encode(out, x.X1)
	out = c.B.Encode(out, x.X2)
	out = c.C.Encode(out, x.X3)
	out = c.D.Encode(out, x.X4)
	return out
}

func (c Tuple4Codec[A, B, C, D]) Decode(b []byte) (Quad[A, B, C, D], int, error) {
	var zero Quad[A, B, C, D]
	x1, n1, err := c.A.Decode(b)
	if err != nil {
		return zero, 0, err
	}
	x2, n2, err := c.B.Decode(b[n1:])
	if err != nil {
		return zero, 0, err
	}
	x3, n3, err := c.C.Decode(b[n1+n2:])
	if err != nil {
		return zero, 0, err
	}
	x4, n4, err := c.D.Decode(b[n1+n2+n3:])
	if err != nil {
		return zero, 0, err
	}
	return Quad[A, B, C, D]{x1, x2, x3, x4}, n1 + n2 + n3 + n4, nil
}

func (c Tuple4Codec[A, B, C, D]) Min() Quad[A, B, C, D] {
	return Quad[A, B, C, D]{c.A.Min(), c.B.Min(), c.C.Min(), c.D.Min()}
}
func (c Tuple4Codec[A, B, C, D]) Max() Quad[A, B, C, D] {
	return Quad[A, B, C, D]{c.A.Max(), c.B.Max(), c.C.Max(), c.D.Max()}
}
func (c Tuple4Codec[A, B, C, D]) Succ(x Quad[A, B, C, D]) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x.X1, x.X2, x.X3, c.D.Succ(x.X4)}
}
func (c Tuple4Codec[A, B, C, D]) Pred(x Quad[A, B, C, D]) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x.X1, x.X2, x.X3, c.D.Pred(x.X4)}
}
func (c Tuple4Codec[A, B, C, D]) Pp(x Quad[A, B, C, D]) string {
	return "(" + c.A.Pp(x.X1) + ", " + c.B.Pp(x.X2) + ", " + c.C.Pp(x.X3) + ", " + c.D.Pp(x.X4) + ")"
}

// LowerK3 fixes the first three components and minimizes the fourth —
// the shape used to find the first row-version of a given key+column.
func (c Tuple4Codec[A, B, C, D]) LowerK3(x1 A, x2 B, x3 C) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, x2, x3, c.D.Min()}
}

// UpperK3 fixes the first three components and maximizes the fourth.
func (c Tuple4Codec[A, B, C, D]) UpperK3(x1 A, x2 B, x3 C) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, x2, x3, c.D.Max()}
}

// LowerK2 fixes the first two components.
func (c Tuple4Codec[A, B, C, D]) LowerK2(x1 A, x2 B) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, x2, c.C.Min(), c.D.Min()}
}

// UpperK2 fixes the first two components.
func (c Tuple4Codec[A, B, C, D]) UpperK2(x1 A, x2 B) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, x2, c.C.Max(), c.D.Max()}
}

// LowerK1 fixes only the first component.
func (c Tuple4Codec[A, B, C, D]) LowerK1(x1 A) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, c.B.Min(), c.C.Min(), c.D.Min()}
}

// UpperK1 fixes only the first component.
func (c Tuple4Codec[A, B, C, D]) UpperK1(x1 A) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{x1, c.B.Max(), c.C.Max(), c.D.Max()}
}

// Tuple5Codec concatenates five element codecs — the full datum-key shape
// (keyspace, table, key, column, descending timestamp).
type Tuple5Codec[A, B, C, D, E any] struct {
	A Codec[A]
	B Codec[B]
	C Codec[C]
	D Codec[D]
	E Codec[E]
}

type Quint[A, B, C, D, E any] struct {
	X1 A
	X2 B
	X3 C
	X4 D
	X5 E
}

func (c Tuple5Codec[A, B, C, D, E]) Encode(out []byte, x Quint[A, B, C, D, E]) []byte {
	out = c.A.Encode(out, x.X1)
	out = c.B.Encode(out, x.X2)
	out = c.C.Encode(out, x.X3)
	out = c.D.Encode(out, x.X4)
	out = c.E.Encode(out, x.X5)
	return out
}

func (c Tuple5Codec[A, B, C, D, E]) Decode(b []byte) (Quint[A, B, C, D, E], int, error) {
	var zero Quint[A, B, C, D, E]
	x1, n1, err := c.A.Decode(b)
	if err != nil {
		return zero, 0, err
	}
	x2, n2, err := c.B.Decode(b[n1:])
	if err != nil {
		return zero, 0, err
	}
	x3, n3, err := c.C.Decode(b[n1+n2:])
	if err != nil {
		return zero, 0, err
	}
	x4, n4, err := c.D.Decode(b[n1+n2+n3:])
	if err != nil {
		return zero, 0, err
	}
	x5, n5, err := c.E.Decode(b[n1+n2+n3+n4:])
	if err != nil {
		return zero, 0, err
	}
	return Quint[A, B, C, D, E]{x1, x2, x3, x4, x5}, n1 + n2 + n3 + n4 + n5, nil
}

func (c Tuple5Codec[A, B, C, D, E]) Min() Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{c.A.Min(), c.B.Min(), c.C.Min(), c.D.Min(), c.E.Min()}
}
func (c Tuple5Codec[A, B, C, D, E]) Max() Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{c.A.Max(), c.B.Max(), c.C.Max(), c.D.Max(), c.E.Max()}
}
func (c Tuple5Codec[A, B, C, D, E]) Succ(x Quint[A, B, C, D, E]) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x.X1, x.X2, x.X3, x.X4, c.E.Succ(x.X5)}
}
func (c Tuple5Codec[A, B, C, D, E]) Pred(x Quint[A, B, C, D, E]) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x.X1, x.X2, x.X3, x.X4, c.E.Pred(x.X5)}
}
func (c Tuple5Codec[A, B, C, D, E]) Pp(x Quint[A, B, C, D, E]) string {
	return "(" + c.A.Pp(x.X1) + ", " + c.B.Pp(x.X2) + ", " + c.C.Pp(x.X3) + ", " + c.D.Pp(x.X4) + ", " + c.E.Pp(x.X5) + ")"
}

// LowerK4 fixes the first four components and minimizes the fifth — the
// shape used to find the newest (least-timestamp-complement) version of a
// fully-qualified datum key.
func (c Tuple5Codec[A, B, C, D, E]) LowerK4(x1 A, x2 B, x3 C, x4 D) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, x3, x4, c.E.Min()}
}

// UpperK4 fixes the first four components and maximizes the fifth.
func (c Tuple5Codec[A, B, C, D, E]) UpperK4(x1 A, x2 B, x3 C, x4 D) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, x3, x4, c.E.Max()}
}

// LowerK3 fixes the first three components.
func (c Tuple5Codec[A, B, C, D, E]) LowerK3(x1 A, x2 B, x3 C) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, x3, c.D.Min(), c.E.Min()}
}

// UpperK3 fixes the first three components.
func (c Tuple5Codec[A, B, C, D, E]) UpperK3(x1 A, x2 B, x3 C) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, x3, c.D.Max(), c.E.Max()}
}

// LowerK2 fixes the first two components.
func (c Tuple5Codec[A, B, C, D, E]) LowerK2(x1 A, x2 B) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, c.C.Min(), c.D.Min(), c.E.Min()}
}

// UpperK2 fixes the first two components.
func (c Tuple5Codec[A, B, C, D, E]) UpperK2(x1 A, x2 B) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, x2, c.C.Max(), c.D.Max(), c.E.Max()}
}

// LowerK1 fixes only the first component.
func (c Tuple5Codec[A, B, C, D, E]) LowerK1(x1 A) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, c.B.Min(), c.C.Min(), c.D.Min(), c.E.Min()}
}

// UpperK1 fixes only the first component.
func (c Tuple5Codec[A, B, C, D, E]) UpperK1(x1 A) Quint[A, B, C, D, E] {
	return Quint[A, B, C, D, E]{x1, c.B.Max(), c.C.Max(), c.D.Max(), c.E.Max()}
}
