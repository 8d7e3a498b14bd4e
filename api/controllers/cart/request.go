package cart

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// quantity defaults to one when omitted.
func (r addItemRequest) quantity() int {
	if r.Quantity <= 0 {
		return 1
	}
	return r.Quantity
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type couponRequest struct {
	CouponCode string `json:"couponCode" validate:"required,max=50"`
}
