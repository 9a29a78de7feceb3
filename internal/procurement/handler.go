package procurement

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/files"
	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

// Uploader persists multipart uploads and returns their relative path.
type Uploader interface {
	SaveForm(w http.ResponseWriter, r *http.Request, field, category string) (string, error)
	Remove(path string) error
}

// Handler manages procurement endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	uploads   Uploader
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, uploads Uploader) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, uploads: uploads, validator: httpx.NewValidator()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.listRequests)
		r.Post("/", h.createRequest)
		r.Get("/{id}", h.getRequest)
		r.Patch("/{id}", h.updateRequest)
	})
	r.Route("/purchases", func(r chi.Router) {
		r.Get("/", h.listPurchases)
		r.Post("/", h.createPurchase)
		r.Get("/{id}", h.getPurchase)
		r.Delete("/{id}", h.deletePurchase)
		r.Post("/{id}/invoice", h.attachInvoice)
		r.Patch("/{id}/review", h.startReview)
		r.Patch("/{id}/approve", h.approve)
		r.Patch("/{id}/reject", h.reject)
		r.Post("/{id}/tax-invoice", h.uploadTaxInvoice)
		r.Get("/{id}/acknowledgement", h.getAcknowledgement)
		r.Post("/{id}/acknowledgement", h.acknowledge)
	})
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/", h.recordPayment)
		r.Post("/{id}/proof", h.attachProof)
	})
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", h.listLedger)
		r.Post("/opening", h.openLedger)
	})
}

func actorFrom(r *http.Request) shared.Actor {
	actor, _ := shared.ActorFromContext(r.Context())
	return actor
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return uuid.Nil, false
	}
	return id, true
}

// Requests

type requestLinePayload struct {
	MaterialID   *uuid.UUID      `json:"material_id"`
	Description  string          `json:"description" validate:"max=500"`
	Quantity     decimal.Decimal `json:"quantity"`
	ExpectedRate decimal.Decimal `json:"expected_rate"`
	Remarks      string          `json:"remarks"`
}

func (p requestLinePayload) input() RequestLineInput {
	return RequestLineInput{MaterialID: p.MaterialID, Description: p.Description, Quantity: p.Quantity, ExpectedRate: p.ExpectedRate, Remarks: p.Remarks}
}

type createRequestPayload struct {
	Department           string               `json:"department" validate:"max=100"`
	BuyerID              *uuid.UUID           `json:"buyer_id"`
	OrderID              *uuid.UUID           `json:"order_id"`
	PreferredVendorID    *uuid.UUID           `json:"preferred_vendor_id"`
	RequestedDate        string               `json:"requested_date"`
	ExpectedPurchaseDate string               `json:"expected_purchase_date"`
	Notes                string               `json:"notes"`
	Lines                []requestLinePayload `json:"lines" validate:"dive"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	requested, err := httpx.ParseDate("requested_date", payload.RequestedDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	expected, err := httpx.ParseDate("expected_purchase_date", payload.ExpectedPurchaseDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := CreateRequestInput{
		Department:           payload.Department,
		BuyerID:              payload.BuyerID,
		OrderID:              payload.OrderID,
		PreferredVendorID:    payload.PreferredVendorID,
		RequestedDate:        requested,
		ExpectedPurchaseDate: expected,
		Notes:                payload.Notes,
	}
	for _, l := range payload.Lines {
		input.Lines = append(input.Lines, l.input())
	}
	created, err := h.service.CreateRequest(r.Context(), actorFrom(r), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type updateRequestPayload struct {
	Department           *string              `json:"department" validate:"omitempty,max=100"`
	ExpectedPurchaseDate *string              `json:"expected_purchase_date"`
	PreferredVendorID    *uuid.UUID           `json:"preferred_vendor_id"`
	Notes                *string              `json:"notes"`
	Status               *RequestStatus       `json:"status"`
	Lines                []requestLinePayload `json:"lines" validate:"omitempty,dive"`
}

func (h *Handler) updateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload updateRequestPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := UpdateRequestInput{
		Fields: RequestFields{
			Department:        payload.Department,
			PreferredVendorID: payload.PreferredVendorID,
			Notes:             payload.Notes,
		},
		Status: payload.Status,
	}
	if payload.ExpectedPurchaseDate != nil {
		d, err := httpx.ParseDate("expected_purchase_date", *payload.ExpectedPurchaseDate)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		input.Fields.ExpectedPurchaseDate = d
	}
	if payload.Lines != nil {
		input.Lines = make([]RequestLineInput, 0, len(payload.Lines))
		for _, l := range payload.Lines {
			input.Lines = append(input.Lines, l.input())
		}
	}
	if err := h.service.UpdateRequest(r.Context(), actorFrom(r), id, input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetRequest(r.Context(), actorFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := RequestFilter{Status: RequestStatus(q.Get("status"))}
	var err error
	if filter.BuyerID, err = httpx.ParseUUID("buyer_id", q.Get("buyer_id")); err == nil {
		if filter.OrderID, err = httpx.ParseUUID("order_id", q.Get("order_id")); err == nil {
			filter.From, filter.To, err = dateRange(q.Get("from"), q.Get("to"))
		}
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListRequests(r.Context(), actorFrom(r), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(list))
}

func dateRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := httpx.ParseDate("from", from)
	if err != nil {
		return nil, nil, err
	}
	t, err := httpx.ParseDate("to", to)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}

// Purchases

type purchaseLinePayload struct {
	MaterialID  *uuid.UUID      `json:"material_id"`
	Description string          `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	ActualRate  decimal.Decimal `json:"actual_rate"`
}

type createPurchasePayload struct {
	RequestID          uuid.UUID             `json:"material_request_id" validate:"required"`
	VendorID           uuid.UUID             `json:"vendor_id" validate:"required"`
	InvoiceNo          string                `json:"invoice_no" validate:"max=100"`
	InvoiceDate        string                `json:"invoice_date"`
	InvoiceType        string                `json:"invoice_type_submitted" validate:"omitempty,oneof=TAX_INVOICE PROVISIONAL"`
	TotalInvoiceAmount decimal.Decimal       `json:"total_invoice_amount"`
	Notes              string                `json:"notes"`
	Lines              []purchaseLinePayload `json:"lines" validate:"dive"`
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var payload createPurchasePayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoiceDate, err := httpx.ParseDate("invoice_date", payload.InvoiceDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := CreatePurchaseInput{
		RequestID:          payload.RequestID,
		VendorID:           payload.VendorID,
		InvoiceNo:          payload.InvoiceNo,
		InvoiceDate:        invoiceDate,
		InvoiceType:        ParseInvoiceType(payload.InvoiceType),
		TotalInvoiceAmount: payload.TotalInvoiceAmount,
		Notes:              payload.Notes,
	}
	for _, l := range payload.Lines {
		input.Lines = append(input.Lines, PurchaseLineInput(l))
	}
	p, err := h.service.CreatePurchase(r.Context(), actorFrom(r), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": p.ID, "status": p.Status})
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := PurchaseFilter{Status: PurchaseStatus(q.Get("status"))}
	ids := []struct {
		name string
		dst  **uuid.UUID
	}{
		{"vendor_id", &filter.VendorID},
		{"runner_id", &filter.RunnerID},
		{"buyer_id", &filter.BuyerID},
		{"order_id", &filter.OrderID},
		{"material_request_id", &filter.RequestID},
	}
	for _, p := range ids {
		v, err := httpx.ParseUUID(p.name, q.Get(p.name))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		*p.dst = v
	}
	var err error
	if filter.From, filter.To, err = dateRange(q.Get("from"), q.Get("to")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListPurchases(r.Context(), actorFrom(r), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetPurchase(r.Context(), actorFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePurchase(r.Context(), actorFrom(r), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) startReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.StartReview(r.Context(), actorFrom(r), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

type reviewPayload struct {
	Comment string `json:"accountant_comment" validate:"max=1000"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, shared.Actor, uuid.UUID, ReviewInput) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload reviewPayload
	if r.ContentLength != 0 {
		if err := httpx.Bind(r, h.validator, &payload); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	if err := fn(r.Context(), actorFrom(r), id, ReviewInput(payload)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

// uploadField is the multipart field carrying every upload.
const uploadField = "file"

// withUpload stores the multipart file and hands its path to fn. The stored
// file is removed again when fn fails.
func (h *Handler) withUpload(w http.ResponseWriter, r *http.Request, field, category string, fn func(path string) (any, error)) {
	path, err := h.uploads.SaveForm(w, r, field, category)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := fn(path)
	if err != nil {
		if path != "" {
			if rmErr := h.uploads.Remove(path); rmErr != nil {
				h.logger.Warn("remove orphaned upload", slog.String("path", path), slog.Any("error", rmErr))
			}
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) attachInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.withUpload(w, r, uploadField, files.CategoryInvoices, func(path string) (any, error) {
		if err := h.service.AttachInvoice(r.Context(), actorFrom(r), id, path); err != nil {
			return nil, err
		}
		return map[string]string{"file_path": path}, nil
	})
}

func (h *Handler) uploadTaxInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.withUpload(w, r, uploadField, files.CategoryInvoices, func(path string) (any, error) {
		return h.service.UploadTaxInvoice(r.Context(), actorFrom(r), id, path)
	})
}

// Vendor confirmation

type acknowledgePayload struct {
	Status AckStatus `json:"acknowledgement_status" validate:"required"`
	Remark *string   `json:"runner_remark" validate:"omitempty,max=1000"`
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload acknowledgePayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	vc, err := h.service.Acknowledge(r.Context(), actorFrom(r), id, AcknowledgeInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vc)
}

func (h *Handler) getAcknowledgement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	vc, err := h.service.GetAcknowledgement(r.Context(), actorFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vc)
}

// Payments

type paymentPayload struct {
	PurchaseID  uuid.UUID       `json:"purchase_id" validate:"required"`
	PaymentDate string          `json:"payment_date" validate:"required"`
	Method      PaymentMethod   `json:"payment_method" validate:"required"`
	Amount      decimal.Decimal `json:"paid_amount"`
	ReferenceNo string          `json:"reference_no" validate:"max=100"`
	Notes       string          `json:"notes"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var payload paymentPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := httpx.ParseDate("payment_date", payload.PaymentDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.RecordPayment(r.Context(), actorFrom(r), PaymentInput{
		PurchaseID:     payload.PurchaseID,
		PaymentDate:    *date,
		Method:         payload.Method,
		Amount:         payload.Amount,
		ReferenceNo:    payload.ReferenceNo,
		Notes:          payload.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) attachProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.withUpload(w, r, uploadField, files.CategoryPaymentProofs, func(path string) (any, error) {
		if err := h.service.AttachPaymentProof(r.Context(), actorFrom(r), id, path); err != nil {
			return nil, err
		}
		return map[string]string{"file_path": path}, nil
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := httpx.ParseUUID("purchase_id", r.URL.Query().Get("purchase_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListPayments(r.Context(), actorFrom(r), purchaseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(list))
}

// Ledger

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListLedger(r.Context(), actorFrom(r), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(list))
}

type openLedgerPayload struct {
	LedgerDate     string          `json:"ledger_date" validate:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Remarks        string          `json:"remarks"`
}

func (h *Handler) openLedger(w http.ResponseWriter, r *http.Request) {
	var payload openLedgerPayload
	if err := httpx.Bind(r, h.validator, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := httpx.ParseDate("ledger_date", payload.LedgerDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.OpenLedgerDay(r.Context(), actorFrom(r), OpenLedgerInput{
		LedgerDate:     *date,
		OpeningBalance: payload.OpeningBalance,
		Remarks:        payload.Remarks,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
