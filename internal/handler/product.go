package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/domain/window"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	now := h.catalog.Now()
	writeArray(w, products, func(e *jx.Encoder, p *product.Product) { encodeProduct(e, p, now) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && !p.Active {
		err = product.ErrNotFound
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeProduct(w, http.StatusOK, p, h.catalog.Now())
}

func (h *Handler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAll(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	now := h.catalog.Now()
	writeArray(w, products, func(e *jx.Encoder, p *product.Product) { encodeProduct(e, p, now) })
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var (
		in  product.CreateInput
		win window.Patch
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			in.ID, err = readString(d, key)
		case "name":
			in.Name, err = readString(d, key)
		case "description":
			in.Description, err = readString(d, key)
		case "category":
			in.Category, err = readString(d, key)
		case "image_url":
			in.ImageURL, err = readString(d, key)
		case "price":
			in.Price, err = readInt(d, key)
		case "discount_percent":
			var pct int64
			pct, err = readInt(d, key)
			in.Discount.Percent = int(pct)
		case "discount_enabled":
			in.Discount.Enabled, err = readBool(d, key)
		case "discount_start_at":
			win.Start, err = readTime(d, key)
		case "discount_end_at":
			win.End, err = readTime(d, key)
		case "active":
			in.Active, err = readOptBool(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	in.Discount.Window = windowOf(win)

	p, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeProduct(w, http.StatusCreated, p, h.catalog.Now())
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch product.Patch
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			patch.Name, err = readOptString(d, key)
		case "description":
			patch.Description, err = readOptString(d, key)
		case "category":
			patch.Category, err = readOptString(d, key)
		case "image_url":
			patch.ImageURL, err = readOptString(d, key)
		case "price":
			patch.Price, err = readOptInt(d, key)
		case "discount_percent":
			var pct *int64
			if pct, err = readOptInt(d, key); pct != nil {
				v := int(*pct)
				patch.DiscountPercent = &v
			}
		case "discount_enabled":
			patch.DiscountEnabled, err = readOptBool(d, key)
		case "discount_start_at":
			patch.DiscountWindow.Start, err = readTime(d, key)
		case "discount_end_at":
			patch.DiscountWindow.End, err = readTime(d, key)
		case "active":
			patch.Active, err = readOptBool(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	p, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeProduct(w, http.StatusOK, p, h.catalog.Now())
}

func writeProduct(w http.ResponseWriter, status int, p *product.Product, now time.Time) {
	writeJSON(w, status, func(e *jx.Encoder) { encodeProduct(e, p, now) })
}

// encodeProduct writes p together with the price a shopper pays at now.
func encodeProduct(e *jx.Encoder, p *product.Product, now time.Time) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image_url")
	e.Str(p.ImageURL)
	e.FieldStart("price")
	e.Int64(p.Price)
	e.FieldStart("discount_percent")
	e.Int(p.Discount.Percent)
	e.FieldStart("discount_enabled")
	e.Bool(p.Discount.Enabled)
	encodeWindow(e, "discount_start_at", "discount_end_at", p.Discount.Window)
	e.FieldStart("active_discount_percent")
	e.Int(product.ActiveDiscountPercent(*p, now))
	e.FieldStart("final_price")
	e.Int64(product.EffectivePrice(*p, now))
	e.FieldStart("active")
	e.Bool(p.Active)
	e.FieldStart("created_at")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, p.UpdatedAt)
	e.ObjEnd()
}
