package entity

// PartyRole is the side an identity plays in an engagement.
type PartyRole string

const (
	RoleClient     PartyRole = "client"
	RoleFreelancer PartyRole = "freelancer"
)

// RoleOf reports which side userID is on, or false when it is not a party.
func (e *Engagement) RoleOf(userID string) (PartyRole, bool) {
	switch userID {
	case e.ClientID:
		return RoleClient, true
	case e.FreelancerID:
		return RoleFreelancer, true
	}
	return "", false
}
