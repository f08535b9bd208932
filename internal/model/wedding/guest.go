package wedding

// RSVPStatus is a guest's attendance answer for one event.
type RSVPStatus string

const (
	RSVPUnset RSVPStatus = ""
	RSVPYes   RSVPStatus = "yes"
	RSVPNo    RSVPStatus = "no"
	RSVPMaybe RSVPStatus = "maybe"
)

// Label renders the status for humans.
func (s RSVPStatus) Label() string {
	switch s {
	case RSVPYes:
		return "Attending"
	case RSVPNo:
		return "Not attending"
	case RSVPMaybe:
		return "Maybe"
	default:
		return "Not responded yet"
	}
}

// Guest is an invitee of a wedding.
type Guest struct {
	ID           string            `gorm:"primaryKey;size:64" json:"id"`
	WeddingID    string            `gorm:"index;size:64;not null" json:"wedding_id"`
	Name         string            `json:"name"`
	Relationship string            `json:"relationship"`
	Side         string            `json:"side"`
	ProfileImage string            `json:"profile_image"`
	Invitations  []EventInvitation `gorm:"foreignKey:GuestID" json:"invitations"`
}

func (Guest) TableName() string {
	return "guests"
}

// EventInvitation links a guest to one event.
type EventInvitation struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	GuestID    string     `gorm:"index;size:64;not null" json:"guest_id"`
	EventID    string     `gorm:"index;size:64;not null" json:"event_id"`
	RSVPStatus RSVPStatus `gorm:"column:rsvp_status;size:16" json:"rsvp_status"`
	Event      *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (EventInvitation) TableName() string {
	return "event_invitations"
}
