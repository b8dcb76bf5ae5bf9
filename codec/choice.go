package codec

// Choice2Codec encodes a two-way tagged union with a one-byte tag ahead of
// the chosen element's encoding, so that every value of the left branch
// sorts before every value of the right branch regardless of what either
// branch's own codec does internally (spec.md §4.1 "choice").
// A and B must be comparable so Succ/Pred can detect a branch boundary
// (x == c.A.Max()) when carrying across tags; codecs over slice-backed
// types (e.g. self_delimited_string) can't instantiate a choice directly
// for this reason — wrap them in a comparable handle type first.
type Choice2Codec[A, B comparable] struct {
	A Codec[A]
	B Codec[B]
}

// Either2 holds exactly one of two alternatives, selected by Tag (0 or 1).
type Either2[A, B comparable] struct {
	Tag byte
	A   A
	B   B
}

func Left2[A, B comparable](x A) Either2[A, B]  { return Either2[A, B]{Tag: 0, A: x} }
func Right2[A, B comparable](x B) Either2[A, B] { return Either2[A, B]{Tag: 1, B: x} }

func (c Choice2Codec[A, B]) Encode(out []byte, x Either2[A, B]) []byte {
	switch x.Tag {
	case 0:
		out = append(out, 0)
		return c.A.Encode(out, x.A)
	default:
		out = append(out, 1)
		return c.B.Encode(out, x.B)
	}
}

func (c Choice2Codec[A, B]) Decode(b []byte) (Either2[A, B], int, error) {
	var zero Either2[A, B]
	if len(b) < 1 {
		return zero, 0, errf(IncompleteFragment, "choice2: need 1 tag byte")
	}
	switch b[0] {
	case 0:
		v, n, err := c.A.Decode(b[1:])
		if err != nil {
			return zero, 0, err
		}
		return Either2[A, B]{Tag: 0, A: v}, n + 1, nil
	case 1:
		v, n, err := c.B.Decode(b[1:])
		if err != nil {
			return zero, 0, err
		}
		return Either2[A, B]{Tag: 1, B: v}, n + 1, nil
	default:
		return zero, 0, errf(UnknownTag, "choice2: tag %#x not in [0,1]", b[0])
	}
}

func (c Choice2Codec[A, B]) Min() Either2[A, B] { return Left2[A, B](c.A.Min()) }
func (c Choice2Codec[A, B]) Max() Either2[A, B] { return Right2[A, B](c.B.Max()) }

func (c Choice2Codec[A, B]) Succ(x Either2[A, B]) Either2[A, B] {
	if x.Tag == 0 {
		if x.A == c.A.Max() {
			return Right2[A, B](c.B.Min())
		}
		return Left2[A, B](c.A.Succ(x.A))
	}
	return Right2[A, B](c.B.Succ(x.B))
}

func (c Choice2Codec[A, B]) Pred(x Either2[A, B]) Either2[A, B] {
	if x.Tag == 1 {
		if x.B == c.B.Min() {
			return Left2[A, B](c.A.Max())
		}
		return Right2[A, B](c.B.Pred(x.B))
	}
	return Left2[A, B](c.A.Pred(x.A))
}

func (c Choice2Codec[A, B]) Pp(x Either2[A, B]) string {
	if x.Tag == 0 {
		return "L(" + c.A.Pp(x.A) + ")"
	}
	return "R(" + c.B.Pp(x.B) + ")"
}

// Choice3Codec is a three-way tagged union: every value of an earlier
// branch sorts before every value of a later one, without giving any
// branch's codec a say in the ordering between branches.
type Choice3Codec[A, B, C comparable] struct {
	A Codec[A]
	B Codec[B]
	C Codec[C]
}

type Either3[A, B, C comparable] struct {
	Tag byte
	A   A
	B   B
	C   C
}

func Left3[A, B, C comparable](x A) Either3[A, B, C]   { return Either3[A, B, C]{Tag: 0, A: x} }
func Middle3[A, B, C comparable](x B) Either3[A, B, C] { return Either3[A, B, C]{Tag: 1, B: x} }
func Right3[A, B, C comparable](x C) Either3[A, B, C]  { return Either3[A, B, C]{Tag: 2, C: x} }

func (c Choice3Codec[A, B, C]) Encode(out []byte, x Either3[A, B, C]) []byte {
	switch x.Tag {
	case 0:
		out = append(out, 0)
		return c.A.Encode(out, x.A)
	case 1:
		out = append(out, 1)
		return c.B.Encode(out, x.B)
	default:
		out = append(out, 2)
		return c.C.Encode(out, x.C)
	}
}

func (c Choice3Codec[A, B, C]) Decode(b []byte) (Either3[A, B, C], int, error) {
	var zero Either3[A, B, C]
	if len(b) < 1 {
		return zero, 0, errf(IncompleteFragment, "choice3: need 1 tag byte")
	}
	switch b[0] {
	case 0:
		v, n, err := c.A.Decode(b[1:])
		if err != nil {
			return zero, 0, err
		}
		return Either3[A, B, C]{Tag: 0, A: v}, n + 1, nil
	case 1:
		v, n, err := c.B.Decode(b[1:])
		if err != nil {
			return zero, 0, err
		}
		return Either3[A, B, C]{Tag: 1, B: v}, n + 1, nil
	case 2:
		v, n, err := c.C.Decode(b[1:])
		if err != nil {
			return zero, 0, err
		}
		return Either3[A, B, C]{Tag: 2, C: v}, n + 1, nil
	default:
		return zero, 0, errf(UnknownTag, "choice3: tag %#x not in [0,2]", b[0])
	}
}

func (c Choice3Codec[A, B, C]) Min() Either3[A, B, C] { return Left3[A, B, C](c.A.Min()) }
func (c Choice3Codec[A, B, C]) Max() Either3[A, B, C] { return Right3[A, B, C](c.C.Max()) }

func (c Choice3Codec[A, B, C]) Succ(x Either3[A, B, C]) Either3[A, B, C] {
	switch x.Tag {
	case 0:
		if x.A == c.A.Max() {
			return Middle3[A, B, C](c.B.Min())
		}
		return Left3[A, B, C](c.A.Succ(x.A))
	case 1:
		if x.B == c.B.Max() {
			return Right3[A, B, C](c.C.Min())
		}
		return Middle3[A, B, C](c.B.Succ(x.B))
	default:
		return Right3[A, B, C](c.C.Succ(x.C))
	}
}

func (c Choice3Codec[A, B, C]) Pred(x Either3[A, B, C]) Either3[A, B, C] {
	switch x.Tag {
	case 2:
		if x.C == c.C.Min() {
			return Middle3[A, B, C](c.B.Max())
		}
		return Right3[A, B, C](c.C.Pred(x.C))
	case 1:
		if x.B == c.B.Min() {
			return Left3[A, B, C](c.A.Max())
		}
		return Middle3[A, B, C](c.B.Pred(x.B))
	default:
		return Left3[A, B, C](c.A.Pred(x.A))
	}
}

func (c Choice3Codec[A, B, C]) Pp(x Either3[A, B, C]) string {
	switch x.Tag {
	case 0:
		return "L(" + c.A.Pp(x.A) + ")"
	case 1:
		return "M(" + c.B.Pp(x.B) + ")"
	default:
		return "R(" + c.C.Pp(x.C) + ")"
	}
}
