package lifecycle

import (
	"github.com/echallan/backend/models"
)

// Store is the entity-store contract the engine runs against. Reads return
// (nil, nil) when the entity does not exist; only infrastructure failures
// come back as errors.
//
// Atomically is the single-request transaction boundary: every mutation the
// callback performs either all persists or none does. The engine never
// leaves a challan, payment and appeal half-written across requests.
type Store interface {
	GetCamera(id uint) (*models.Camera, error)
	UpdateCamera(cam *models.Camera) error

	GetUser(id uint) (*models.User, error)
	ListDeviceTokens() ([]models.DeviceToken, error)

	CreateChallan(c *models.Challan) error
	GetChallan(id uint) (*models.Challan, error)
	UpdateChallan(c *models.Challan) error

	CreatePayment(p *models.Payment) error
	GetPayment(id uint) (*models.Payment, error)
	UpdatePayment(p *models.Payment) error
	CompletedPaymentForChallan(challanID uint) (*models.Payment, error)

	CreateAppeal(a *models.Appeal) error
	GetAppeal(id uint) (*models.Appeal, error)
	UpdateAppeal(a *models.Appeal) error
	AppealForChallan(challanID uint) (*models.Appeal, error)

	Atomically(fn func(tx Store) error) error
}
