package identity

import "github.com/nichelink/gateway/internal/utils"

// Role is the side of the marketplace a user signed up on.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

func (r Role) Valid() bool {
	return r == RoleBrand || r == RoleInfluencer
}

// BrandProfile is the brand half of a user account. A profile counts as
// complete once BusinessName is populated.
type BrandProfile struct {
	BusinessName string `json:"business_name,omitempty"`
	Website      string `json:"website,omitempty"`
	Industry     string `json:"industry,omitempty"`
	Location     string `json:"location,omitempty"`
}

// InfluencerProfile is the influencer half of a user account. A profile
// counts as complete once DisplayName is populated.
type InfluencerProfile struct {
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Niche       string `json:"niche,omitempty"`
	Followers   int64  `json:"followers,omitempty"`
}

type User struct {
	ID                string             `json:"id,omitempty"`
	Email             string             `json:"email,omitempty"`
	FirstName         string             `json:"first_name,omitempty"`
	LastName          string             `json:"last_name,omitempty"`
	SignedUpAs        Role               `json:"signed_up_as,omitempty"`
	EmailVerified     bool               `json:"email_verified,omitempty"`
	BrandProfile      *BrandProfile      `json:"brand_profile,omitempty"`
	InfluencerProfile *InfluencerProfile `json:"influencer_profile,omitempty"`
}

// DashboardRole decides which dashboard a user belongs on, based on which
// profile is complete. Neither complete defaults to the influencer
// dashboard.
func (u *User) DashboardRole() Role {
	if utils.Value(u.BrandProfile).BusinessName != "" {
		return RoleBrand
	}
	if utils.Value(u.InfluencerProfile).DisplayName != "" {
		return RoleInfluencer
	}
	return RoleInfluencer
}

// Credentials is the token pair and user object produced by a successful
// credential or social exchange.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}

// SocialAssertion is the identity established by a verified social-provider
// callback, together with the intended signup role read from the role
// cookie. Apple omits name parts on repeat logins, so empty names are valid.
type SocialAssertion struct {
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"signed_up_as"`
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

type Subscription struct {
	PlanType string             `json:"plan_type,omitempty"`
	Status   SubscriptionStatus `json:"status,omitempty"`
}

func (s Subscription) Active() bool {
	return s.Status == SubscriptionActive
}

// Campaign is the initial campaign created at the end of the brand
// onboarding flow.
type Campaign struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Brand is the public brand view returned by the get-a-brand endpoint.
type Brand struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name,omitempty"`
	Website      string `json:"website,omitempty"`
	Industry     string `json:"industry,omitempty"`
}
