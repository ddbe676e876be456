package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helpermatch/credits-backend/internal/api/httpx"
	"github.com/helpermatch/credits-backend/internal/api/validate"
	"github.com/helpermatch/credits-backend/internal/config"
	"github.com/helpermatch/credits-backend/internal/middleware"
	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/helpermatch/credits-backend/internal/services"
)

func NewRouter(cfg config.Config, am *middleware.AuthMiddleware, us *services.UserService, bs *services.BalanceService, ps *services.PurchaseService, cs *services.ContactService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Email, Password, Role string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
				return
			}
			u, err := us.Register(r.Context(), req.Email, req.Password, req.Role)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, u)
		})

		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Email, Password string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
				return
			}
			pair, err := us.Login(r.Context(), req.Email, req.Password)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"access_token":  pair.Access,
				"refresh_token": pair.Refresh,
				"expires_at":    pair.AccessExp,
			})
		})

		r.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				RefreshToken string `json:"refresh_token"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
				return
			}
			pair, err := us.Refresh(r.Context(), req.RefreshToken)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"access_token":  pair.Access,
				"refresh_token": pair.Refresh,
				"expires_at":    pair.AccessExp,
			})
		})

		// ---------- credits (authenticated) ----------
		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			r.Post("/credits/purchase", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct {
					CreditsAmount  int64  `json:"credits_amount"`
					CostMinorUnits int64  `json:"cost_minor_units"`
					AttemptID      string `json:"attempt_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				var errs validate.Errs
				if e := validate.Required("attempt_id", req.AttemptID); e != nil {
					errs = append(errs, *e)
				}
				if e := validate.MinInt("credits_amount", req.CreditsAmount, 1); e != nil {
					errs = append(errs, *e)
				}
				if e := validate.MinInt("cost_minor_units", req.CostMinorUnits, 1); e != nil {
					errs = append(errs, *e)
				}
				if len(errs) > 0 {
					httpx.WriteError(w, http.StatusBadRequest, "validation", "invalid request", errs)
					return
				}
				res, err := ps.Purchase(r.Context(), uid, req.CreditsAmount, req.CostMinorUnits, req.AttemptID)
				if err != nil {
					writeInfraError(w, r, err)
					return
				}
				httpx.WriteJSON(w, purchaseStatus(res), res)
			})

			r.Post("/credits/purchase/confirm", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Key           string `json:"key"`
					ClientSecret  string `json:"client_secret"`
					PaymentMethod string `json:"payment_method"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" || req.ClientSecret == "" {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				res, err := ps.ConfirmAndComplete(r.Context(), req.Key, req.ClientSecret, req.PaymentMethod)
				if err != nil {
					if errors.Is(err, services.ErrNotConfirmed) {
						httpx.WriteError(w, http.StatusPaymentRequired, "not_confirmed", "payment was not confirmed", nil)
						return
					}
					writeInfraError(w, r, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, res)
			})

			r.Post("/credits/purchase/complete", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Key               string `json:"key"`
					GatewayPaymentRef string `json:"gateway_payment_ref"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" || req.GatewayPaymentRef == "" {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				res, err := ps.Complete(r.Context(), req.Key, req.GatewayPaymentRef)
				if err != nil {
					writeInfraError(w, r, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, res)
			})

			r.Get("/credits/balance", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				acct, err := bs.Current(r.Context(), uid)
				if err != nil {
					writeInfraError(w, r, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, acct)
			})

			r.Get("/credits/history", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				limit, offset := 20, 0
				if v := r.URL.Query().Get("limit"); v != "" {
					if n, err := strconv.Atoi(v); err == nil && n > 0 {
						limit = n
					}
				}
				if v := r.URL.Query().Get("offset"); v != "" {
					if n, err := strconv.Atoi(v); err == nil && n >= 0 {
						offset = n
					}
				}
				txs, err := bs.History(r.Context(), uid, limit, offset)
				if err != nil {
					writeInfraError(w, r, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, txs)
			})

			// only sponsors pay contact fees
			r.With(middleware.RequireRole(models.RoleSponsor)).
				Post("/contacts/charge", func(w http.ResponseWriter, r *http.Request) {
					uid, _ := middleware.UserID(r.Context())
					var req struct {
						TargetID  string `json:"target_id"`
						Credits   int64  `json:"credits"`
						Message   string `json:"message"`
						AttemptID string `json:"attempt_id"`
					}
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
						return
					}
					if req.Credits <= 0 {
						req.Credits = cfg.ContactFeeCredits
					}
					if e := validate.Required("target_id", req.TargetID); e != nil {
						httpx.WriteError(w, http.StatusBadRequest, "validation", "invalid request", validate.Errs{*e})
						return
					}
					res, err := cs.Charge(r.Context(), uid, req.TargetID, req.Credits, req.Message, req.AttemptID)
					if err != nil {
						writeInfraError(w, r, err)
						return
					}
					status := http.StatusOK
					if !res.Success {
						status = http.StatusConflict
						if res.InsufficientCredits {
							status = http.StatusPaymentRequired
						}
					}
					httpx.WriteJSON(w, status, res)
				})
		})
	})

	return r
}

func purchaseStatus(res models.PurchaseStart) int {
	switch res.Outcome {
	case models.PurchaseStarted:
		return http.StatusAccepted
	case models.PurchaseInFlight:
		return http.StatusAccepted
	case models.PurchaseGatewayError, models.PurchasePreviouslyFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

// writeInfraError keeps user-facing messages generic; detail goes to the
// server log only.
func writeInfraError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, repo.ErrIllegalTransition):
		slog.Error("illegal payment transition", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusConflict, "conflict", "operation is in a conflicting state", nil)
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
