package session

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/mu"
)

// Field numbers of the credential records. Shared base fields come
// first; variant-specific fields start at 100 so the base can always be
// decoded without knowing the variant.
const (
	fieldID   = 1
	fieldType = 2

	fieldUsername  = 3
	fieldEmail     = 4
	fieldAccountID = 5
	fieldDeviceID  = 6

	fieldMobileUserID     = 100
	fieldMobileUserSecret = 101

	fieldWebUWT      = 100
	fieldWebBirthday = 101
	fieldWebTOSAdult = 102
	fieldWebPrivacy  = 103

	fieldKVValue   = 1
	fieldKVExpires = 2

	fieldMUSession = 2
	fieldMUType    = 3
)

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func encodeWebKV(kv km.WebKV) []byte {
	var b []byte
	b = appendString(b, fieldKVValue, kv.Value)
	b = appendVarint(b, fieldKVExpires, uint64(kv.Expires))
	return b
}

func encodeKM(cfg km.Config) ([]byte, error) {
	switch c := cfg.(type) {
	case *km.ConfigWeb:
		var b []byte
		b = appendString(b, fieldID, c.ID)
		b = appendVarint(b, fieldType, uint64(km.DeviceWeb))
		b = appendString(b, fieldUsername, c.Username)
		b = appendString(b, fieldEmail, c.Email)
		b = appendVarint(b, fieldAccountID, uint64(c.AccountID))
		b = appendVarint(b, fieldDeviceID, uint64(c.DeviceID))
		b = appendString(b, fieldWebUWT, c.UWT)
		b = appendMessage(b, fieldWebBirthday, encodeWebKV(c.Birthday))
		b = appendMessage(b, fieldWebTOSAdult, encodeWebKV(c.TOSAdult))
		b = appendMessage(b, fieldWebPrivacy, encodeWebKV(c.Privacy))
		return b, nil

	case *km.ConfigMobile:
		var b []byte
		b = appendString(b, fieldID, c.ID)
		b = appendVarint(b, fieldType, uint64(km.DeviceMobile))
		b = appendString(b, fieldUsername, c.Username)
		b = appendString(b, fieldEmail, c.Email)
		b = appendVarint(b, fieldAccountID, uint64(c.AccountID))
		b = appendVarint(b, fieldDeviceID, uint64(c.DeviceID))
		b = appendString(b, fieldMobileUserID, c.UserID)
		b = appendString(b, fieldMobileUserSecret, c.UserSecret)
		return b, nil

	default:
		return nil, fmt.Errorf("session: unsupported config type %T", cfg)
	}
}

func encodeMU(rec *MUSession) []byte {
	var b []byte
	b = appendString(b, fieldID, rec.ID)
	b = appendString(b, fieldMUSession, rec.Session)
	b = appendVarint(b, fieldMUType, uint64(rec.Device))
	return b
}

// walker steps through a wire message field by field, remembering the
// first error.
type walker struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (w *walker) next() bool {
	if w.err != nil || len(w.buf) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(w.buf)
	if n < 0 {
		w.err = protowire.ParseError(n)
		return false
	}
	w.buf = w.buf[n:]
	w.num, w.typ = num, typ
	return true
}

func (w *walker) varint() uint64 {
	if w.err != nil {
		return 0
	}
	if w.typ != protowire.VarintType {
		w.skip()
		return 0
	}
	v, n := protowire.ConsumeVarint(w.buf)
	if n < 0 {
		w.err = protowire.ParseError(n)
		return 0
	}
	w.buf = w.buf[n:]
	return v
}

func (w *walker) bytes() []byte {
	if w.err != nil {
		return nil
	}
	if w.typ != protowire.BytesType {
		w.skip()
		return nil
	}
	v, n := protowire.ConsumeBytes(w.buf)
	if n < 0 {
		w.err = protowire.ParseError(n)
		return nil
	}
	w.buf = w.buf[n:]
	return v
}

func (w *walker) text() string { return string(w.bytes()) }

func (w *walker) skip() {
	if w.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(w.num, w.typ, w.buf)
	if n < 0 {
		w.err = protowire.ParseError(n)
		return
	}
	w.buf = w.buf[n:]
}

// peekKMType scans just the type discriminator so the right variant
// decoder can be picked before reading variant-specific fields.
func peekKMType(data []byte) (km.DeviceType, error) {
	w := &walker{buf: data}
	var typ km.DeviceType
	for w.next() {
		if w.num == fieldType {
			typ = km.DeviceType(w.varint())
		} else {
			w.skip()
		}
	}
	return typ, w.err
}

func decodeWebKV(data []byte) (km.WebKV, error) {
	var kv km.WebKV
	w := &walker{buf: data}
	for w.next() {
		switch w.num {
		case fieldKVValue:
			kv.Value = w.text()
		case fieldKVExpires:
			kv.Expires = int64(w.varint())
		default:
			w.skip()
		}
	}
	return kv, w.err
}

func decodeKM(data []byte) (km.Config, error) {
	typ, err := peekKMType(data)
	if err != nil {
		return nil, fmt.Errorf("session: decode config: %w", err)
	}

	switch typ {
	case km.DeviceWeb:
		cfg := &km.ConfigWeb{}
		w := &walker{buf: data}
		for w.next() {
			switch w.num {
			case fieldID:
				cfg.ID = w.text()
			case fieldType:
				w.varint()
			case fieldUsername:
				cfg.Username = w.text()
			case fieldEmail:
				cfg.Email = w.text()
			case fieldAccountID:
				cfg.AccountID = uint32(w.varint())
			case fieldDeviceID:
				cfg.DeviceID = uint32(w.varint())
			case fieldWebUWT:
				cfg.UWT = w.text()
			case fieldWebBirthday:
				kv, err := decodeWebKV(w.bytes())
				if err != nil {
					return nil, err
				}
				cfg.Birthday = kv
			case fieldWebTOSAdult:
				kv, err := decodeWebKV(w.bytes())
				if err != nil {
					return nil, err
				}
				cfg.TOSAdult = kv
			case fieldWebPrivacy:
				kv, err := decodeWebKV(w.bytes())
				if err != nil {
					return nil, err
				}
				cfg.Privacy = kv
			default:
				w.skip()
			}
		}
		if w.err != nil {
			return nil, fmt.Errorf("session: decode web config: %w", w.err)
		}
		return cfg, nil

	case km.DeviceMobile:
		// The stored record does not carry the mobile platform, so
		// loaded sessions default to Android.
		cfg := &km.ConfigMobile{Platform: km.PlatformAndroid}
		w := &walker{buf: data}
		for w.next() {
			switch w.num {
			case fieldID:
				cfg.ID = w.text()
			case fieldType:
				w.varint()
			case fieldUsername:
				cfg.Username = w.text()
			case fieldEmail:
				cfg.Email = w.text()
			case fieldAccountID:
				cfg.AccountID = uint32(w.varint())
			case fieldDeviceID:
				cfg.DeviceID = uint32(w.varint())
			case fieldMobileUserID:
				cfg.UserID = w.text()
			case fieldMobileUserSecret:
				cfg.UserSecret = w.text()
			default:
				w.skip()
			}
		}
		if w.err != nil {
			return nil, fmt.Errorf("session: decode mobile config: %w", w.err)
		}
		return cfg, nil

	default:
		return nil, fmt.Errorf("%w: type tag %d", ErrUnknownVariant, typ)
	}
}

func decodeMU(data []byte) (*MUSession, error) {
	rec := &MUSession{}
	w := &walker{buf: data}
	for w.next() {
		switch w.num {
		case fieldID:
			rec.ID = w.text()
		case fieldMUSession:
			rec.Session = w.text()
		case fieldMUType:
			rec.Device = mu.Platform(w.varint())
		default:
			w.skip()
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("session: decode record: %w", w.err)
	}
	return rec, nil
}
