package payos

// paymentItem is one line item attached to a payment link request.
type paymentItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type createPaymentRequest struct {
	OrderCode   int64         `json:"orderCode"`
	Amount      int64         `json:"amount"`
	Description string        `json:"description"`
	Items       []paymentItem `json:"items"`
	CancelURL   string        `json:"cancelUrl"`
	ReturnURL   string        `json:"returnUrl"`
	Signature   string        `json:"signature"`
}

type cancelPaymentRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// envelope is the gateway's uniform response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data *paymentLinkRaw `json:"data"`
}

type paymentLinkRaw struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkoutUrl"`
	QRCode      string `json:"qrCode"`
	PaymentID   string `json:"paymentLinkId"`
}

// PaymentLinkInfo is the typed view of a gateway payment link.
type PaymentLinkInfo struct {
	OrderCode   int64
	Amount      int64
	Status      string
	CheckoutURL string
	QRCode      string
	PaymentID   string
}

func (r *paymentLinkRaw) toInfo() *PaymentLinkInfo {
	if r == nil {
		return nil
	}
	return &PaymentLinkInfo{
		OrderCode:   r.OrderCode,
		Amount:      r.Amount,
		Status:      r.Status,
		CheckoutURL: r.CheckoutURL,
		QRCode:      r.QRCode,
		PaymentID:   r.PaymentID,
	}
}
