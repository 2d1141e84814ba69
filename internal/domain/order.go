package domain

import "time"

// Order is a customer order. Orders are created by the storefront, so the
// API only reads and patches them.
type Order struct {
	Entity

	OrderNumber      string
	CreationDate     time.Time
	CurrencyID       string
	Locale           string
	CustomerID       string
	CustomerComment  string
	InternalNote     string
	BillingAddress   Address
	ShippingAddress  *Address
	GrandTotal       Price
	TotalBeforeTaxes Price
	TotalTax         Price
	InvoicedOn       *time.Time
	DeliveredOn      *time.Time
	PendingOn        *time.Time
	ArchivedOn       *time.Time
	DispatchedOn     *time.Time
	ViewedOn         *time.Time
	RejectedOn       *time.Time
	ClosedOn         *time.Time
	PaidOn           *time.Time
	ReturnedOn       *time.Time
	Links            []Link
}

// OrderSchema maps Order onto the orders resource.
var OrderSchema = &Schema[Order]{
	Path:    "orders",
	Methods: MethodSet{MethodGet, MethodPatch},
	New:     func() *Order { return &Order{} },
	Base:    func(o *Order) *Entity { return &o.Entity },
	Fields: []Field[Order]{
		Attr("orderNumber", func(o *Order) *string { return &o.OrderNumber }),
		Attr("creationDate", func(o *Order) *time.Time { return &o.CreationDate }),
		Attr("currencyId", func(o *Order) *string { return &o.CurrencyID }),
		Attr("locale", func(o *Order) *string { return &o.Locale }),
		Attr("customerId", func(o *Order) *string { return &o.CustomerID }),
		Attr("customerComment", func(o *Order) *string { return &o.CustomerComment }),
		Attr("internalNote", func(o *Order) *string { return &o.InternalNote }),
		Attr("billingAddress", func(o *Order) *Address { return &o.BillingAddress }),
		Attr("shippingAddress", func(o *Order) **Address { return &o.ShippingAddress }),
		Attr("grandTotal", func(o *Order) *Price { return &o.GrandTotal }),
		Attr("totalBeforeTaxes", func(o *Order) *Price { return &o.TotalBeforeTaxes }),
		Attr("totalTax", func(o *Order) *Price { return &o.TotalTax }),
		Attr("invoicedOn", func(o *Order) **time.Time { return &o.InvoicedOn }),
		Attr("deliveredOn", func(o *Order) **time.Time { return &o.DeliveredOn }),
		Attr("pendingOn", func(o *Order) **time.Time { return &o.PendingOn }),
		Attr("archivedOn", func(o *Order) **time.Time { return &o.ArchivedOn }),
		Attr("dispatchedOn", func(o *Order) **time.Time { return &o.DispatchedOn }),
		Attr("viewedOn", func(o *Order) **time.Time { return &o.ViewedOn }),
		Attr("rejectedOn", func(o *Order) **time.Time { return &o.RejectedOn }),
		Attr("closedOn", func(o *Order) **time.Time { return &o.ClosedOn }),
		Attr("paidOn", func(o *Order) **time.Time { return &o.PaidOn }),
		Attr("returnedOn", func(o *Order) **time.Time { return &o.ReturnedOn }),
		Attr("links", func(o *Order) *[]Link { return &o.Links }),
	},
}

func (o *Order) SetCustomerComment(v string) { assign(&o.Entity, "customerComment", &o.CustomerComment, v) }
func (o *Order) SetInternalNote(v string)    { assign(&o.Entity, "internalNote", &o.InternalNote, v) }
func (o *Order) SetBillingAddress(v Address) { assign(&o.Entity, "billingAddress", &o.BillingAddress, v) }
func (o *Order) SetShippingAddress(v *Address) {
	assign(&o.Entity, "shippingAddress", &o.ShippingAddress, v)
}

// The status setters stamp the order with t.
func (o *Order) SetInvoicedOn(t time.Time)   { assign(&o.Entity, "invoicedOn", &o.InvoicedOn, &t) }
func (o *Order) SetDeliveredOn(t time.Time)  { assign(&o.Entity, "deliveredOn", &o.DeliveredOn, &t) }
func (o *Order) SetDispatchedOn(t time.Time) { assign(&o.Entity, "dispatchedOn", &o.DispatchedOn, &t) }
func (o *Order) SetPaidOn(t time.Time)       { assign(&o.Entity, "paidOn", &o.PaidOn, &t) }
func (o *Order) SetClosedOn(t time.Time)     { assign(&o.Entity, "closedOn", &o.ClosedOn, &t) }
func (o *Order) SetArchivedOn(t time.Time)   { assign(&o.Entity, "archivedOn", &o.ArchivedOn, &t) }
