package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role controls what a user may do on the platform.
type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDeveloper, RoleAdmin:
		return true
	}
	return false
}

// SubscriptionPlan is the paid tier a user is on.
type SubscriptionPlan string

const (
	PlanBasic      SubscriptionPlan = "basic"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// Subscription mirrors the state held by the payment provider.
type Subscription struct {
	Plan             SubscriptionPlan `bson:"plan" json:"plan"`
	Status           string           `bson:"status" json:"status"`
	CurrentPeriodEnd time.Time        `bson:"current_period_end" json:"current_period_end"`
	StripeID         string           `bson:"stripe_id,omitempty" json:"-"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role     Role   `bson:"role" json:"role"`

	IsVerified        bool    `bson:"is_verified" json:"is_verified"`
	VerificationToken *string `bson:"verification_token,omitempty" json:"-"`

	StripeCustomerID string        `bson:"stripe_customer_id,omitempty" json:"-"`
	Subscription     *Subscription `bson:"subscription,omitempty" json:"subscription,omitempty"`
}
