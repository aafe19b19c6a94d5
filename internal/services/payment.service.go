package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"roomledger/config"
	"roomledger/internal/logger"

	"github.com/shopspring/decimal"
)

const (
	PaymentResultSuccess = 0
	PaymentResultError   = -1
)

type InitiatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	OrderID     string          `json:"orderId"`
	OrderInfo   string          `json:"orderInfo"`
	RedirectURL string          `json:"redirectUrl"`
	ExtraData   string          `json:"extraData,omitempty"`
}

type InitiatePaymentResult struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// PaymentService is the client for the external payment gateway. The wire
// schema is the gateway's contract; this client only initiates payments and
// interprets result codes. Gateway failures surface as a non-success result,
// never as an aborted business transaction.
type PaymentService struct {
	gatewayURL  string
	partnerCode string
	secretKey   string
	redirectURL string
	client      *http.Client
	log         logger.Logger
}

func NewPaymentService(config config.Config) *PaymentService {
	return &PaymentService{
		gatewayURL:  config.PaymentGatewayURL,
		partnerCode: config.PaymentPartnerCode,
		secretKey:   config.PaymentSecretKey,
		redirectURL: config.PaymentRedirectURL,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         logger.New("paymentService"),
	}
}

// InitiatePayment asks the gateway for a payment URL. All transport and
// decode failures are folded into an error result; callers branch on
// ResultCode.
func (s *PaymentService) InitiatePayment(ctx context.Context, request InitiatePaymentRequest) InitiatePaymentResult {
	log := s.log.Function("InitiatePayment")

	if s.gatewayURL == "" {
		log.Warn("payment gateway not configured", "orderId", request.OrderID)
		return InitiatePaymentResult{ResultCode: PaymentResultError, Message: "payment gateway not configured"}
	}

	if request.RedirectURL == "" {
		request.RedirectURL = s.redirectURL
	}

	payload := map[string]any{
		"partnerCode": s.partnerCode,
		"amount":      request.Amount,
		"orderId":     request.OrderID,
		"orderInfo":   request.OrderInfo,
		"redirectUrl": request.RedirectURL,
		"extraData":   request.ExtraData,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Er("failed to marshal payment request", err, "orderId", request.OrderID)
		return InitiatePaymentResult{ResultCode: PaymentResultError, Message: "invalid payment request"}
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		log.Er("failed to build payment request", err, "orderId", request.OrderID)
		return InitiatePaymentResult{ResultCode: PaymentResultError, Message: "invalid payment request"}
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+s.secretKey)

	response, err := s.client.Do(httpRequest)
	if err != nil {
		log.Er("payment gateway unreachable", err, "orderId", request.OrderID)
		return InitiatePaymentResult{ResultCode: PaymentResultError, Message: "payment gateway unreachable"}
	}
	defer func() {
		_ = response.Body.Close()
	}()

	var result InitiatePaymentResult
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		log.Er("failed to decode gateway response", err, "orderId", request.OrderID)
		return InitiatePaymentResult{ResultCode: PaymentResultError, Message: "invalid gateway response"}
	}

	log.Info("payment initiated", "orderId", request.OrderID, "resultCode", result.ResultCode)
	return result
}
