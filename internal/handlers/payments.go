package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v79"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/config"
	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/internal/services"
)

var paymentService *services.PaymentService

// InitPaymentService wires the Stripe client. When the key is missing the
// service stays nil and payment routes answer 503.
func InitPaymentService(cfg *config.Config) error {
	service, err := services.NewPaymentService(cfg)
	if err != nil {
		return err
	}
	paymentService = service
	return nil
}

func paymentsConfigured(w http.ResponseWriter) bool {
	if paymentService == nil {
		respondError(w, http.StatusServiceUnavailable, "Payments are not configured")
		return false
	}
	return true
}

// ensureStripeCustomer returns the user's Stripe customer id, creating and
// persisting it on first use.
func ensureStripeCustomer(r *http.Request, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := paymentService.CreateCustomer(user)
	if err != nil {
		return "", err
	}
	if err := db.UpdateUserFields(r.Context(), user.ID, map[string]interface{}{"stripe_customer_id": customerID}); err != nil {
		return "", err
	}
	return customerID, nil
}

type CreateIntentRequest struct {
	ProjectID string `json:"project_id"`
	Amount    int64  `json:"amount"` // smallest currency unit (cents)
	Currency  string `json:"currency,omitempty"`
}

// CreateIntent creates a payment intent for a project's budget. Only the
// project owner pays.
func CreateIntent(w http.ResponseWriter, r *http.Request) {
	if !paymentsConfigured(w) {
		return
	}
	actor, _ := middleware.ActorFrom(r.Context())

	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "amount: must be positive")
		return
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}
	projID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProjectID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "project_id: invalid id")
		return
	}

	project, err := eng.GetProject(r.Context(), actor, projID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if !engine.CanMutateOwnerFields(actor, project) {
		respondEngineError(w, engine.ErrAccessDenied)
		return
	}

	user, err := db.UserByID(r.Context(), actor.ID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	customerID, err := ensureStripeCustomer(r, user)
	if err != nil {
		log.Printf("ERROR: failed to ensure stripe customer: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	intent, err := paymentService.CreateIntent(req.Amount, req.Currency, customerID, map[string]string{
		"project_id": project.ID.Hex(),
		"user_id":    user.ID.Hex(),
	})
	if err != nil {
		log.Printf("ERROR: failed to create payment intent: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	respondJSON(w, http.StatusCreated, Response{Success: true, Data: map[string]string{
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
	}})
}

// intentVisibleTo reports whether the actor may read a payment intent. The
// intent's metadata names its creating user; admins see everything, as with
// projects.
func intentVisibleTo(actor engine.Actor, metadata map[string]string) bool {
	return actor.Role == models.RoleAdmin || metadata["user_id"] == actor.ID.Hex()
}

// GetIntent returns the status of a previously created intent. Intents made
// by other users look like missing ones.
func GetIntent(w http.ResponseWriter, r *http.Request) {
	if !paymentsConfigured(w) {
		return
	}
	actor, _ := middleware.ActorFrom(r.Context())

	intent, err := paymentService.RetrieveIntent(chi.URLParam(r, "intentID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	if !intentVisibleTo(actor, intent.Metadata) {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"intent_id": intent.ID,
		"status":    intent.Status,
		"amount":    intent.Amount,
	}})
}

// CreateSubscription starts a plan subscription for the caller.
func CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if !paymentsConfigured(w) {
		return
	}
	actor, _ := middleware.ActorFrom(r.Context())

	var req struct {
		Plan models.SubscriptionPlan `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Plan.Valid() {
		respondError(w, http.StatusBadRequest, "plan: must be basic, premium or enterprise")
		return
	}

	user, err := db.UserByID(r.Context(), actor.ID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	customerID, err := ensureStripeCustomer(r, user)
	if err != nil {
		log.Printf("ERROR: failed to ensure stripe customer: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create subscription")
		return
	}

	sub, err := paymentService.CreateSubscription(customerID, req.Plan)
	if err != nil {
		log.Printf("ERROR: failed to create subscription: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create subscription")
		return
	}

	subscription := &models.Subscription{
		Plan:             req.Plan,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		StripeID:         sub.ID,
	}
	if err := db.UpdateUserFields(r.Context(), user.ID, map[string]interface{}{"subscription": subscription}); err != nil {
		respondEngineError(w, err)
		return
	}

	resp := map[string]interface{}{
		"subscription_id": sub.ID,
		"status":          sub.Status,
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		resp["client_secret"] = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Data: resp})
}

// StripeWebhook receives signed events from Stripe. Signature verification
// fails closed: without a valid signature nothing is processed.
func StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !paymentsConfigured(w) {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}

	event, err := paymentService.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("⚠️  WARNING: webhook signature verification failed: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			respondError(w, http.StatusBadRequest, "Malformed event payload")
			return
		}
		handlePaymentSucceeded(r, event.ID, &intent)
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			respondError(w, http.StatusBadRequest, "Malformed event payload")
			return
		}
		handleSubscriptionChanged(r, &sub)
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handlePaymentSucceeded credits the project budget and drops a milestone
// note into its thread. The credit is an atomic increment keyed on the event
// id, so a concurrent or redelivered webhook never double counts.
func handlePaymentSucceeded(r *http.Request, eventID string, intent *stripe.PaymentIntent) {
	projectIDHex := intent.Metadata["project_id"]
	projID, err := primitive.ObjectIDFromHex(projectIDHex)
	if err != nil {
		log.Printf("⚠️  WARNING: payment intent %s has no usable project_id metadata", intent.ID)
		return
	}

	amount := float64(intent.Amount) / 100
	if _, err := eng.RecordPayment(r.Context(), eventID, projID, amount, string(intent.Currency)); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			log.Printf("Stripe event %s already processed, skipping", eventID)
			return
		}
		log.Printf("ERROR: webhook could not record payment for project %s: %v", projectIDHex, err)
	}
}

// handleSubscriptionChanged mirrors subscription state onto the user.
func handleSubscriptionChanged(r *http.Request, sub *stripe.Subscription) {
	if sub.Customer == nil {
		return
	}
	user, err := db.UserByStripeCustomer(r.Context(), sub.Customer.ID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			log.Printf("⚠️  WARNING: subscription event for unknown customer %s", sub.Customer.ID)
			return
		}
		log.Printf("ERROR: webhook could not load user for customer %s: %v", sub.Customer.ID, err)
		return
	}

	fields := map[string]interface{}{
		"subscription.status":             string(sub.Status),
		"subscription.current_period_end": time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if err := db.UpdateUserFields(r.Context(), user.ID, fields); err != nil {
		log.Printf("ERROR: webhook could not update subscription for user %s: %v", user.ID.Hex(), err)
	}
}
