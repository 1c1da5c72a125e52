package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tallyman/internal/ledger/models"
	dErrors "tallyman/pkg/domain-errors"
	"tallyman/pkg/platform/httputil"
	"tallyman/pkg/requestcontext"
)

// maxBodyBytes bounds request bodies. A PEM key is the largest legitimate payload.
const maxBodyBytes = 64 << 10

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	Append(ctx context.Context, req models.AppendTransactionRequest) (*models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, error)
	ListForParty(ctx context.Context, party string) ([]models.Transaction, error)
	Balance(ctx context.Context, party string) (decimal.Decimal, error)
	RegisterKey(ctx context.Context, party, publicKey string) error
	PublicKey(ctx context.Context, party string) (string, error)
	Verify(ctx context.Context) (models.Report, error)
}

// Handler serves the ledger endpoints.
type Handler struct {
	ledger Service
	logger *slog.Logger
}

// New creates a ledger Handler.
func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register mounts the ledger routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transactions", h.handleAppend)
	r.Get("/transactions", h.handleList)
	r.Get("/transactions/{party}", h.handleListForParty)
	r.Get("/balance/{party}", h.handleBalance)
	r.Post("/keys/{party}", h.handleRegisterKey)
	r.Get("/keys/{party}", h.handleGetKey)
	r.Get("/verify", h.handleVerify)
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.AppendTransactionRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.ledger.Append(ctx, req)
	if err != nil {
		h.logFailure(ctx, "append rejected", err, "sender", req.Sender)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, err := h.ledger.List(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list transactions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

func (h *Handler) handleListForParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	party := chi.URLParam(r, "party")
	txs, err := h.ledger.ListForParty(ctx, party)
	if err != nil {
		h.logFailure(ctx, "failed to list party transactions", err, "party", party)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	party := chi.URLParam(r, "party")
	balance, err := h.ledger.Balance(ctx, party)
	if err != nil {
		h.logFailure(ctx, "failed to compute balance", err, "party", party)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.BalanceResponse{
		Party:   party,
		Balance: json.Number(balance.String()),
	})
}

func (h *Handler) handleRegisterKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	party := chi.URLParam(r, "party")

	var req models.RegisterKeyRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.RegisterKey(ctx, party, req.PublicKey); err != nil {
		h.logFailure(ctx, "key registration rejected", err, "party", party)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.KeyResponse{Party: party, Status: "registered"})
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	party := chi.URLParam(r, "party")
	key, err := h.ledger.PublicKey(ctx, party)
	if err != nil {
		h.logFailure(ctx, "failed to load public key", err, "party", party)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.KeyResponse{Party: party, PublicKey: key})
}

// handleVerify answers 200 whatever the verdict; tampering is in the body.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.ledger.Verify(ctx)
	if err != nil {
		h.logFailure(ctx, "ledger audit failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// logFailure logs client rejections at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append([]any{"request_id", requestcontext.RequestID(ctx), "error", err.Error()}, attrs...)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout, dErrors.CodeUnavailable:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}
