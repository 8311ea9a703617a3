package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/window"
)

// validateCode lets the storefront pre-check a code before checkout. The
// result is advisory; CreateOrder validates again.
func (h *Handler) validateCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.validator.Validate(r.Context(), r.URL.Query().Get("code"), h.catalog.Now())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("valid")
		e.Bool(res.Valid)
		e.FieldStart("code")
		e.Str(res.Code)
		e.FieldStart("percent")
		e.Int(res.Percent)
		if res.Reason != "" {
			e.FieldStart("reason")
			e.Str(string(res.Reason))
		}
		e.ObjEnd()
	})
}

func (h *Handler) adminListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeArray(w, codes, encodeCode)
}

func (h *Handler) adminCreateCode(w http.ResponseWriter, r *http.Request) {
	var (
		in  discount.CreateInput
		win window.Patch
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if ok, err := readWindowField(d, key, &win); ok {
			return err
		}
		var err error
		switch key {
		case "code":
			in.Code, err = readString(d, key)
		case "percent":
			var pct int64
			pct, err = readInt(d, key)
			in.Percent = int(pct)
		case "enabled":
			in.Enabled, err = readOptBool(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	in.Window = windowOf(win)

	c, err := h.codes.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCode(e, c) })
}

func (h *Handler) adminUpdateCode(w http.ResponseWriter, r *http.Request) {
	var patch discount.Patch
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if ok, err := readWindowField(d, key, &patch.Window); ok {
			return err
		}
		var err error
		switch key {
		case "percent":
			var pct *int64
			if pct, err = readOptInt(d, key); pct != nil {
				v := int(*pct)
				patch.Percent = &v
			}
		case "enabled":
			patch.Enabled, err = readOptBool(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := h.codes.Update(r.Context(), chi.URLParam(r, "code"), patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCode(e, c) })
}

func (h *Handler) adminDeleteCode(w http.ResponseWriter, r *http.Request) {
	if err := h.codes.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

func encodeCode(e *jx.Encoder, c *discount.Code) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("percent")
	e.Int(c.Percent)
	e.FieldStart("enabled")
	e.Bool(c.Enabled)
	encodeWindow(e, "start_at", "end_at", c.Window)
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, c.UpdatedAt)
	e.ObjEnd()
}
