package mu

import "google.golang.org/protobuf/encoding/protowire"

// fieldScanner walks a protobuf wire message field by field. Accessors
// record the first error and make every later call a no-op, so decode
// loops only check err once at the end.
type fieldScanner struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func newFieldScanner(b []byte) *fieldScanner {
	return &fieldScanner{buf: b}
}

// scan advances to the next field tag.
func (s *fieldScanner) scan() bool {
	if s.err != nil || len(s.buf) == 0 {
		return false
	}

	num, typ, n := protowire.ConsumeTag(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return false
	}

	s.buf = s.buf[n:]
	s.num, s.typ = num, typ
	return true
}

// varint consumes the current field as a varint.
func (s *fieldScanner) varint() uint64 {
	if s.err != nil {
		return 0
	}
	if s.typ != protowire.VarintType {
		s.skip()
		return 0
	}

	v, n := protowire.ConsumeVarint(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return 0
	}

	s.buf = s.buf[n:]
	return v
}

// bytes consumes the current field as a length-delimited payload.
func (s *fieldScanner) bytes() []byte {
	if s.err != nil {
		return nil
	}
	if s.typ != protowire.BytesType {
		s.skip()
		return nil
	}

	v, n := protowire.ConsumeBytes(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return nil
	}

	s.buf = s.buf[n:]
	return v
}

func (s *fieldScanner) text() string {
	return string(s.bytes())
}

func (s *fieldScanner) textPtr() *string {
	v := s.text()
	return &v
}

func (s *fieldScanner) uint64Ptr() *uint64 {
	v := s.varint()
	return &v
}

// skip discards the current field's value.
func (s *fieldScanner) skip() {
	if s.err != nil {
		return
	}

	n := protowire.ConsumeFieldValue(s.num, s.typ, s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return
	}

	s.buf = s.buf[n:]
}
