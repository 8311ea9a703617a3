package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/window"
)

func (h *Handler) activeNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.notices.Active(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeArray(w, notices, encodeNotice)
}

func (h *Handler) adminListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.notices.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeArray(w, notices, encodeNotice)
}

func (h *Handler) adminCreateNotice(w http.ResponseWriter, r *http.Request) {
	var (
		in  notice.CreateInput
		win window.Patch
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if ok, err := readWindowField(d, key, &win); ok {
			return err
		}
		var err error
		switch key {
		case "message":
			in.Message, err = readString(d, key)
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

	n, err := h.notices.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeNotice(e, n) })
}

func (h *Handler) adminUpdateNotice(w http.ResponseWriter, r *http.Request) {
	var patch notice.Patch
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if ok, err := readWindowField(d, key, &patch.Window); ok {
			return err
		}
		var err error
		switch key {
		case "message":
			patch.Message, err = readOptString(d, key)
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

	n, err := h.notices.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeNotice(e, n) })
}

func (h *Handler) adminDeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.notices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

func encodeNotice(e *jx.Encoder, n *notice.Notice) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(n.ID)
	e.FieldStart("message")
	e.Str(n.Message)
	e.FieldStart("enabled")
	e.Bool(n.Enabled)
	encodeWindow(e, "start_at", "end_at", n.Window)
	e.FieldStart("created_at")
	encodeTime(e, n.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, n.UpdatedAt)
	e.ObjEnd()
}
