package handler

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

const maxBodySize = 1 << 20

// fieldFunc decodes the value of one object member.
type fieldFunc func(d *jx.Decoder, key string) error

// decodeObject reads a JSON object body and hands every member to fn.
// Unknown members must be skipped by fn.
func decodeObject(r *http.Request, fn fieldFunc) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(body) > maxBodySize {
		return validate.New("body", "must be at most %d bytes", maxBodySize)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return validate.New("body", "is required")
	}
	return decodeMembers(jx.DecodeBytes(body), fn)
}

func decodeMembers(d *jx.Decoder, fn fieldFunc) error {
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return fn(d, string(key))
	})
	if err == nil {
		return nil
	}
	if ve, ok := validate.As(err); ok {
		return ve
	}
	return validate.New("body", "malformed JSON: %v", err)
}

func isNull(d *jx.Decoder) (bool, error) {
	if d.Next() != jx.Null {
		return false, nil
	}
	return true, d.Null()
}

// readString accepts a string, a number or null ("").
func readString(d *jx.Decoder, field string) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		return n.String(), err
	case jx.Null:
		return "", d.Null()
	default:
		return "", validate.New(field, "must be a string")
	}
}

func readOptString(d *jx.Decoder, field string) (*string, error) {
	s, err := readString(d, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func readBool(d *jx.Decoder, field string) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return false, d.Null()
	default:
		return false, validate.New(field, "must be a boolean")
	}
}

func readOptBool(d *jx.Decoder, field string) (*bool, error) {
	if null, err := isNull(d); null || err != nil {
		return nil, err
	}
	b, err := readBool(d, field)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// readNumber accepts a JSON number or a numeric string. Storefront clients
// send quantities and prices as either.
func readNumber(d *jx.Decoder, field string) (float64, error) {
	switch d.Next() {
	case jx.Number:
		return d.Float64()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, validate.New(field, "must be a number")
		}
		return f, nil
	default:
		if err := d.Skip(); err != nil {
			return 0, err
		}
		return 0, validate.New(field, "must be a number")
	}
}

// readInt rounds a number to the nearest integer.
func readInt(d *jx.Decoder, field string) (int64, error) {
	f, err := readNumber(d, field)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
		return 0, validate.New(field, "is out of range")
	}
	return int64(math.Round(f)), nil
}

func readOptInt(d *jx.Decoder, field string) (*int64, error) {
	if null, err := isNull(d); null || err != nil {
		return nil, err
	}
	v, err := readInt(d, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// readTime decodes an RFC 3339 instant. null and "" clear the value.
func readTime(d *jx.Decoder, field string) (window.Field, error) {
	s, err := readString(d, field)
	if err != nil {
		return window.Field{}, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return window.Field{Set: true}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return window.Field{}, validate.New(field, "must be an RFC 3339 timestamp")
	}
	return window.Field{Set: true, Value: &t}, nil
}

// readWindowField fills patch from start_at/end_at members and reports
// whether key was one of them.
func readWindowField(d *jx.Decoder, key string, patch *window.Patch) (bool, error) {
	var err error
	switch key {
	case "start_at":
		patch.Start, err = readTime(d, key)
	case "end_at":
		patch.End, err = readTime(d, key)
	default:
		return false, nil
	}
	return true, err
}

// windowOf builds a create-time window from a patch.
func windowOf(p window.Patch) window.Window {
	return p.Apply(window.Window{})
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeArray[T any](w http.ResponseWriter, items []T, fn func(e *jx.Encoder, item *T)) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range items {
			fn(e, &items[i])
		}
		e.ArrEnd()
	})
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeOptTime(e *jx.Encoder, t *time.Time) {
	if t == nil || t.IsZero() {
		e.Null()
		return
	}
	encodeTime(e, *t)
}

func encodeWindow(e *jx.Encoder, startKey, endKey string, w window.Window) {
	e.FieldStart(startKey)
	encodeOptTime(e, w.Start)
	e.FieldStart(endKey)
	encodeOptTime(e, w.End)
}
