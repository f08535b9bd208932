package wedding

import (
	"time"

	"gorm.io/datatypes"
)

// Wedding is the couple's profile as managed by the dashboard.
type Wedding struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	BrideName    string     `json:"bride_name"`
	GroomName    string     `json:"groom_name"`
	WeddingDate  *time.Time `json:"wedding_date"`
	VenueName    string     `json:"venue_name"`
	VenueAddress string     `json:"venue_address"`
	Bio          string     `gorm:"type:text" json:"bio"`
	BridePhoto   string     `json:"bride_photo"`
	GroomPhoto   string     `json:"groom_photo"`
	CouplePhoto  string     `json:"couple_photo"`
	Website      *Website   `gorm:"foreignKey:WeddingID" json:"website,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (Wedding) TableName() string {
	return "weddings"
}

// FamilyMember is one entry of a family list on the wedding website.
type FamilyMember struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

// Website holds the public microsite for a wedding.
type Website struct {
	ID          string                            `gorm:"primaryKey;size:64" json:"id"`
	WeddingID   string                            `gorm:"uniqueIndex;size:64;not null" json:"wedding_id"`
	Slug        string                            `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Gallery     datatypes.JSONSlice[string]       `json:"gallery"`
	Story       string                            `gorm:"type:text" json:"story"`
	BrideFamily datatypes.JSONSlice[FamilyMember] `json:"bride_family"`
	GroomFamily datatypes.JSONSlice[FamilyMember] `json:"groom_family"`
}

func (Website) TableName() string {
	return "wedding_websites"
}
