package codec

import "bytes"

// SelfDelimitedStringCodec encodes a byte string so that it is self-
// terminating and remains comparable without knowing what follows it in a
// tuple (spec.md §4.1). Every 0x00 byte in the input is escaped as
// 0x00 0xFF, and the whole value is terminated by 0x00 0x00. This preserves
// lexicographic order because "" < "\x00" < any other prefix: a string that
// is a strict prefix of another always looks smaller once you reach its
// terminator, since the terminator byte (0x00) is smaller than any escaped
// continuation byte (0xFF) or any other literal byte.
var SelfDelimitedStringCodec Codec[[]byte] = selfDelimitedStringCodec{}

type selfDelimitedStringCodec struct{}

func (selfDelimitedStringCodec) Encode(out []byte, x []byte) []byte {
	for _, b := range x {
		if b == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, b)
		}
	}
	return append(out, 0x00, 0x00)
}

func (selfDelimitedStringCodec) Decode(b []byte) ([]byte, int, error) {
	var out []byte
	i := 0
	for {
		if i >= len(b) {
			return nil, 0, errf(IncompleteFragment, "self_delimited_string: unterminated value")
		}
		if b[i] == 0x00 {
			if i+1 >= len(b) {
				return nil, 0, errf(IncompleteFragment, "self_delimited_string: truncated escape/terminator")
			}
			switch b[i+1] {
			case 0x00:
				return out, i + 2, nil
			case 0xFF:
				out = append(out, 0x00)
				i += 2
				continue
			default:
				return nil, 0, errf(BadEncoding, "self_delimited_string: invalid escape 0x00 %#x", b[i+1])
			}
		}
		out = append(out, b[i])
		i++
	}
}

func (selfDelimitedStringCodec) Min() []byte { return []byte{} }

// Max has no finite representation for an unbounded byte string; this
// returns 256 0xFF bytes as a finite stand-in. The tuple codecs' UpperK
// methods use this value, so a string that begins with a longer run of
// 0xFF bytes sorts above it.
func (selfDelimitedStringCodec) Max() []byte { return bytes.Repeat([]byte{0xFF}, 256) }

func (c selfDelimitedStringCodec) Succ(x []byte) []byte {
	return append(append([]byte{}, x...), 0x00)
}

func (selfDelimitedStringCodec) Pred(x []byte) []byte {
	if len(x) == 0 {
		return x
	}
	return x[:len(x)-1]
}

func (selfDelimitedStringCodec) Pp(x []byte) string { return string(x) }

// StringzCodec encodes a null-terminated string; Encode fails with
// UnsatisfiedConstraint if x contains a NUL byte, since that would make the
// terminator ambiguous. Use StringzUnsafeCodec to skip the check when the
// caller already guarantees NUL-free input.
var StringzCodec Codec[string] = stringzCodec{unsafe: false}

// StringzUnsafeCodec is StringzCodec without the NUL-byte precondition
// check (spec.md §4.1 "stringz_unsafe").
var StringzUnsafeCodec Codec[string] = stringzCodec{unsafe: true}

type stringzCodec struct{ unsafe bool }

func (c stringzCodec) Encode(out []byte, x string) []byte {
	if !c.unsafe && bytes.IndexByte([]byte(x), 0x00) >= 0 {
		panic(errf(UnsatisfiedConstraint, "stringz: value contains NUL byte"))
	}
	out = append(out, x...)
	return append(out, 0x00)
}

// EncodeChecked is the non-panicking form.
func (c stringzCodec) EncodeChecked(out []byte, x string) ([]byte, error) {
	if !c.unsafe && bytes.IndexByte([]byte(x), 0x00) >= 0 {
		return nil, errf(UnsatisfiedConstraint, "stringz: value contains NUL byte")
	}
	out = append(out, x...)
	return append(out, 0x00), nil
}

func (c stringzCodec) Decode(b []byte) (string, int, error) {
	i := bytes.IndexByte(b, 0x00)
	if i < 0 {
		return "", 0, errf(IncompleteFragment, "stringz: no NUL terminator found")
	}
	return string(b[:i]), i + 1, nil
}

func (stringzCodec) Min() string { return "" }
func (stringzCodec) Max() string { return string(bytes.Repeat([]byte{0xFF}, 256)) }
func (stringzCodec) Succ(x string) string { return x + "\x01" }
func (c stringzCodec) Pred(x string) string {
	if len(x) == 0 {
		return x
	}
	return x[:len(x)-1]
}
func (stringzCodec) Pp(x string) string { return x }
