package models

import (
	"time"
)

// LightPhase enum
type LightPhase string

const (
	LightRed    LightPhase = "red"
	LightYellow LightPhase = "yellow"
	LightGreen  LightPhase = "green"
)

// CameraStatus enum
type CameraStatus string

const (
	CameraActive   CameraStatus = "active"
	CameraInactive CameraStatus = "inactive"
)

// ChallanStatus enum - the lifecycle states a challan moves through
type ChallanStatus string

const (
	ChallanUnpaid    ChallanStatus = "unpaid"
	ChallanPaid      ChallanStatus = "paid"
	ChallanAppealed  ChallanStatus = "appealed"
	ChallanDismissed ChallanStatus = "dismissed"
)

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// AppealStatus enum
type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// Camera model - a roadside enforcement camera
type Camera struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Lat             float64      `gorm:"column:lat" json:"lat"`
	Lng             float64      `gorm:"column:lng" json:"lng"`
	Address         string       `gorm:"column:address" json:"address"`
	LightStatus     LightPhase   `gorm:"column:light_status;default:red" json:"light_status"`
	Status          CameraStatus `gorm:"column:status;default:active;index" json:"status"`
	SpeedLimit      int          `gorm:"column:speed_limit;default:60" json:"speed_limit"` // km/h
	HealthScore     int          `gorm:"column:health_score;default:100" json:"health_score"`
	LastMaintenance *time.Time   `gorm:"column:last_maintenance" json:"last_maintenance,omitempty"`
	TotalViolations int64        `gorm:"column:total_violations;default:0" json:"total_violations"`

	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Challans []Challan `gorm:"foreignKey:CameraID" json:"challans,omitempty"`
}

func (Camera) TableName() string {
	return "cameras"
}

// Challan model - a violation notice issued against a vehicle
type Challan struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Vehicle       string        `gorm:"column:vehicle;index" json:"vehicle"`
	CameraID      uint          `gorm:"column:camera_id;index" json:"camera_id"`
	Camera        *Camera       `gorm:"foreignKey:CameraID" json:"camera,omitempty"`
	UserID        *uint         `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Amount        float64       `gorm:"column:amount" json:"amount"`
	ViolationType string        `gorm:"column:violation_type;default:traffic_violation" json:"violation_type"` // overspeed, red_light, no_helmet, ...
	Status        ChallanStatus `gorm:"column:status;default:unpaid;index" json:"status"`
	IssuedAt      time.Time     `gorm:"column:issued_at;default:CURRENT_TIMESTAMP;index" json:"issued_at"`
	PaidAt        *time.Time    `gorm:"column:paid_at" json:"paid_at,omitempty"`
	ImageURL      *string       `gorm:"column:image_url" json:"image_url,omitempty"`
	Description   *string       `gorm:"column:description" json:"description,omitempty"`

	Payments []Payment `gorm:"foreignKey:ChallanID" json:"payments,omitempty"`
	Appeal   *Appeal   `gorm:"foreignKey:ChallanID" json:"appeal,omitempty"`
}

func (Challan) TableName() string {
	return "challans"
}

// Payment model - a settlement attempt against a challan
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ChallanID     uint          `gorm:"column:challan_id;index" json:"challan_id"`
	UserID        *uint         `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Amount        float64       `gorm:"column:amount" json:"amount"`
	PaymentMethod string        `gorm:"column:payment_method" json:"payment_method"` // card, bank_transfer, easypay, jazzcash
	TransactionID *string       `gorm:"column:transaction_id" json:"transaction_id,omitempty"`
	Status        PaymentStatus `gorm:"column:status;default:pending;index" json:"status"`
	CreatedAt     time.Time     `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt   *time.Time    `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// Appeal model - a user dispute against a challan.
// challan_id carries a unique index so one-appeal-per-challan holds at the
// store layer, not just in the engine's read-check-write.
type Appeal struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ChallanID     uint         `gorm:"column:challan_id;uniqueIndex" json:"challan_id"`
	UserID        uint         `gorm:"column:user_id;index" json:"user_id"`
	Reason        string       `gorm:"column:reason" json:"reason"`
	Status        AppealStatus `gorm:"column:status;default:pending;index" json:"status"`
	CreatedAt     time.Time    `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	ReviewedAt    *time.Time   `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerNotes *string      `gorm:"column:reviewer_notes" json:"reviewer_notes,omitempty"`
}

func (Appeal) TableName() string {
	return "appeals"
}

// DeviceToken model - push notification registration
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FCMToken  string    `gorm:"column:fcm_token" json:"fcm_token"`
	UserID    *uint     `gorm:"column:user_id;index" json:"user_id,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}
