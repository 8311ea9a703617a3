package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/wildgarden/internal/domain/auth"
	"github.com/xenking/wildgarden/internal/domain/order"
	"github.com/xenking/wildgarden/internal/domain/validate"
)

// createOrder accepts cart references only. Any price, name or total sent by
// the client is ignored.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		c := &req.Customer
		switch key {
		case "order_id":
			req.OrderID, err = readString(d, key)
		case "cart_items":
			req.Lines, err = decodeCartLines(d)
		case "discount_code":
			req.DiscountCode, err = readString(d, key)
		case "needs_shipping":
			req.NeedsShipping, err = readBool(d, key)
		case "payment_method":
			req.PaymentMethod, err = readString(d, key)
		case "customer_name":
			c.Name, err = readString(d, key)
		case "customer_email":
			c.Email, err = readString(d, key)
		case "customer_phone":
			c.Phone, err = readString(d, key)
		case "customer_address":
			c.Address, err = readString(d, key)
		case "customer_city":
			c.City, err = readString(d, key)
		case "delivery_date":
			c.DeliveryDate, err = readString(d, key)
		case "delivery_time":
			c.DeliveryTime, err = readString(d, key)
		case "delivery_notes":
			c.DeliveryNotes, err = readString(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if p := auth.PrincipalFrom(r.Context()); p != nil {
		req.UserID = p.ID
	}

	o, err := h.orders.CreateOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeOrder(w, http.StatusCreated, o)
}

func decodeCartLines(d *jx.Decoder) ([]order.CartLine, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
	default:
		return nil, validate.New("cart_items", "must be an array")
	}

	var lines []order.CartLine
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			return d.Skip()
		}
		var l order.CartLine
		err := decodeMembers(d, func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				l.ProductID, err = readString(d, key)
			case "quantity":
				l.Quantity, err = readNumber(d, key)
			case "gift_message":
				l.GiftMessage, err = readString(d, key)
			default:
				err = d.Skip()
			}
			return err
		})
		lines = append(lines, l)
		return err
	})
	return lines, err
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	orders, err := h.orders.ListForUser(r.Context(), p.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeArray(w, orders, encodeOrder)
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	var limit int
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			fail(w, r, validate.New("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	orders, err := h.orders.List(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeArray(w, orders, encodeOrder)
}

func (h *Handler) adminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		var err error
		status, err = readString(d, key)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "order_id"), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

func writeOrder(w http.ResponseWriter, status int, o *order.Order) {
	writeJSON(w, status, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("order_id")
	e.Str(o.ID)
	if o.UserID != "" {
		e.FieldStart("user_id")
		e.Str(o.UserID)
	}
	e.FieldStart("items")
	e.ArrStart()
	for i := range o.Items {
		encodeLineItem(e, &o.Items[i])
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	e.Int64(o.Subtotal)
	e.FieldStart("discount_code")
	if o.Discount.Code == "" {
		e.Null()
	} else {
		e.Str(o.Discount.Code)
	}
	e.FieldStart("discount_percent")
	e.Int(o.Discount.Percent)
	e.FieldStart("discount_amount")
	e.Int64(o.Discount.Amount)
	e.FieldStart("needs_shipping")
	e.Bool(o.Shipping.Needed)
	e.FieldStart("shipping_cost")
	e.Int64(o.Shipping.Cost)
	e.FieldStart("total")
	e.Int64(o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_method")
	e.Str(o.PaymentMethod)
	e.FieldStart("customer")
	encodeCustomer(e, &o.Customer)
	if o.Email.Status != "" {
		e.FieldStart("email_status")
		encodeEmailStatus(e, &o.Email)
	}
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}

func encodeLineItem(e *jx.Encoder, li *order.LineItem) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(li.ProductID)
	e.FieldStart("name")
	e.Str(li.Name)
	e.FieldStart("quantity")
	e.Int(li.Quantity)
	e.FieldStart("unit_price")
	e.Int64(li.UnitPrice)
	e.FieldStart("original_unit_price")
	e.Int64(li.OriginalUnitPrice)
	e.FieldStart("discount_percent")
	e.Int(li.DiscountPercent)
	e.FieldStart("line_total")
	e.Int64(li.LineTotal())
	if li.GiftMessage != "" {
		e.FieldStart("gift_message")
		e.Str(li.GiftMessage)
	}
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, c *order.Customer) {
	e.ObjStart()
	for _, f := range [...]struct{ key, value string }{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
		{"city", c.City},
		{"delivery_date", c.DeliveryDate},
		{"delivery_time", c.DeliveryTime},
		{"delivery_notes", c.DeliveryNotes},
	} {
		if f.value != "" {
			e.FieldStart(f.key)
			e.Str(f.value)
		}
	}
	e.ObjEnd()
}

func encodeEmailStatus(e *jx.Encoder, st *order.EmailStatus) {
	e.ObjStart()
	e.FieldStart("status")
	e.Str(string(st.Status))
	if st.MessageID != "" {
		e.FieldStart("message_id")
		e.Str(st.MessageID)
	}
	if st.Error != "" {
		e.FieldStart("error")
		e.Str(st.Error)
	}
	if st.UpdatedAt != nil {
		e.FieldStart("updated_at")
		encodeTime(e, *st.UpdatedAt)
	}
	if st.SentAt != nil {
		e.FieldStart("sent_at")
		encodeTime(e, *st.SentAt)
	}
	e.ObjEnd()
}
