package schema

import (
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// Project represents the projects table. A project groups the wallets of one
// owner and is the scope for dashboards, comparisons, and alerts.
type Project struct {
	// ID is the project identifier
	ID string `gorm:"column:id;primaryKey;type:text"`
	// OwnerID is the user who owns this project
	OwnerID string `gorm:"column:owner_id;not null;type:text;index"`
	// Name is the display name
	Name string `gorm:"column:name;not null;type:text"`
	// Category is the peer category used for benchmark lookups (e.g. "defi", "nft")
	Category string `gorm:"column:category;not null;type:text"`
	// CreatedAt is when the project was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Wallets []Wallet `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// Wallet represents the wallets table. A wallet belongs to exactly one project.
type Wallet struct {
	// ID is the wallet identifier
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ProjectID references the owning project
	ProjectID string `gorm:"column:project_id;not null;type:text;index"`
	// Address is the on-chain address. Never exposed through aggregated access.
	Address string `gorm:"column:address;not null;type:text"`
	// Label is an owner-facing name for the wallet
	Label string `gorm:"column:label;type:text"`
	// PrivacyMode is the visibility tier: private, public, or monetizable
	PrivacyMode domain.PrivacyMode `gorm:"column:privacy_mode;not null;default:private;type:text;index"`
	// PurchaseCount counts completed data-access purchases for this wallet
	PurchaseCount int `gorm:"column:purchase_count;not null;default:0"`
	// CreatedAt is when the wallet was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is when the wallet was last modified
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Wallet model
func (Wallet) TableName() string {
	return "wallets"
}
