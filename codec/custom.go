package codec

// CustomCodec relabels an existing codec's domain through a bijection,
// reusing the underlying codec's byte representation and ordering
// entirely. This is how spec.md §4.1's "custom" combinator is expressed:
// given a codec over U and a pair of total, order-preserving conversion
// functions, produce a codec over T without hand-writing Encode/Decode
// again.
//
// ToInternal and OfInternal must be inverses (OfInternal(ToInternal(x)) ==
// x for all representable x) and order-preserving (x < y in T iff
// ToInternal(x) < ToInternal(y) in U's own order), or the resulting codec
// silently violates the Codec contract.
type CustomCodec[T, U any] struct {
	Underlying Codec[U]
	ToInternal func(T) U
	OfInternal func(U) T
	PpFn       func(T) string
}

func (c CustomCodec[T, U]) Encode(out []byte, x T) []byte {
	return c.Underlying.Encode(out, c.ToInternal(x))
}

func (c CustomCodec[T, U]) Decode(b []byte) (T, int, error) {
	var zero T
	u, n, err := c.Underlying.Decode(b)
	if err != nil {
		return zero, 0, err
	}
	return c.OfInternal(u), n, nil
}

func (c CustomCodec[T, U]) Min() T { return c.OfInternal(c.Underlying.Min()) }
func (c CustomCodec[T, U]) Max() T { return c.OfInternal(c.Underlying.Max()) }

func (c CustomCodec[T, U]) Succ(x T) T {
	return c.OfInternal(c.Underlying.Succ(c.ToInternal(x)))
}

func (c CustomCodec[T, U]) Pred(x T) T {
	return c.OfInternal(c.Underlying.Pred(c.ToInternal(x)))
}

func (c CustomCodec[T, U]) Pp(x T) string {
	if c.PpFn != nil {
		return c.PpFn(x)
	}
	return c.Underlying.Pp(c.ToInternal(x))
}
